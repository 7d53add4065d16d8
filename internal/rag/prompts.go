// Package rag implements the two retrieval pipelines compared by the system:
// a single-pass chain and a three-role agent pipeline, both reading from the
// unified store.
package rag

// NoHistory is the sentinel inserted into prompts when a pipeline has no
// prior conversation turns.
const NoHistory = "No previous conversation history."

// expansionPrompt rewrites a follow-up question into a self-contained one
// using the pipeline's own history.
const expansionPrompt = `Given the conversation history and the current question, create an expanded version of the question that includes relevant context from the history.

History:
%s

Current Question: %s

Expanded Question:`

// synthesisPrompt is the single-pass chain's answer prompt. The model is
// restricted to the retrieved context and asked for inline citations.
const synthesisPrompt = `Answer the following question based ONLY on the provided context.
If the answer cannot be fully derived from the context, say "I cannot answer this question based on the provided document."
Include specific citations from the source material in your response.

Previous conversation history for context:
%s

Current context:
%s

Current question: %s

Please provide a detailed answer with citations referencing the specific chunks and page numbers used.
Remember to only use information from the provided context and not any external knowledge.`

// researchPrompt is the agent pipeline's second stage: extract findings with
// citations from the retrieved passages.
const researchPrompt = `You are a research analyst. You only use information from the provided document.
Research the following query against the document passages below and write research notes.
If information cannot be found in the passages, explicitly state that.
Include page numbers and chunk IDs in your research notes.

Query: %s

Document passages:
%s

Research notes:`

// writingPrompt is the agent pipeline's final stage: compose the response
// strictly from the research notes.
const writingPrompt = `You are a technical writer. Create a comprehensive response to the query based strictly on the research findings below.
Do not include any external knowledge.
If the research doesn't provide sufficient information, state that clearly.

Query: %s

Research findings:
%s

Response:`
