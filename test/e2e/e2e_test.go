package e2e

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/guardrail"
	"github.com/hyperjump/kurabe/internal/keyword"
	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/server"
	"github.com/hyperjump/kurabe/internal/service"
	"github.com/hyperjump/kurabe/internal/store"
	"github.com/hyperjump/kurabe/internal/telemetry"
	"github.com/hyperjump/kurabe/internal/vector"
)

const e2eDimensions = 32

type variantPayload struct {
	RAGType       models.RAGType    `json:"rag_type"`
	Answer        string            `json:"answer"`
	Citations     []models.Citation `json:"citations"`
	CitationsText string            `json:"citations_text"`
	Error         string            `json:"error"`
}

type askPayload struct {
	Query       string          `json:"query"`
	Traditional *variantPayload `json:"traditional"`
	Agentic     *variantPayload `json:"agentic"`
}

func startServer(t *testing.T, gen llm.Generator) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	embedder := embedding.NewMockEmbedder(e2eDimensions)
	index, err := vector.NewMemoryIndex(e2eDimensions)
	if err != nil {
		t.Fatal(err)
	}
	keywords, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := store.NewRecordStore(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.New(embedder, index, keywords, records, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = records.Close()
		_ = keywords.Close()
		_ = index.Close()
	})

	ragCfg := config.RAGConfig{ChunkSize: 200, ChunkOverlap: 40, RetrieveTopK: 3, HistoryTopK: 5}
	svc := service.New(st, gen, guardrail.New(zap.NewNop()), telemetry.NopTracker{}, ragCfg, zap.NewNop())
	srv := server.NewServer(svc, &config.ServerConfig{Host: "127.0.0.1", Port: 0}, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, ts *httptest.Server, name, content string) map[string]interface{} {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/api/v1/documents", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func ask(t *testing.T, ts *httptest.Server, query string) *askPayload {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	resp, err := http.Post(ts.URL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask status = %d", resp.StatusCode)
	}
	var out askPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return &out
}

const reportText = `The annual report covers three areas. Revenue grew twelve percent year over year, driven by the subscription business.

Headcount expanded from 240 to 310 employees, mostly in engineering and support.

The outlook section projects continued growth but flags currency risk in European markets.`

func TestFullFlow_uploadAskCompare(t *testing.T) {
	gen := llm.NewScriptedGenerator(
		"Revenue grew twelve percent, see page 1.",
	)
	ts := startServer(t, gen)

	up := upload(t, ts, "annual-report.txt", reportText)
	if up["file_name"] != "annual-report.txt" {
		t.Errorf("upload response = %v", up)
	}

	result := ask(t, ts, "how much did revenue grow?")
	for _, v := range []*variantPayload{result.Traditional, result.Agentic} {
		if v == nil {
			t.Fatal("missing variant in response")
		}
		if v.Error != "" {
			t.Fatalf("%s variant errored: %s", v.RAGType, v.Error)
		}
		if !strings.Contains(v.Answer, "twelve percent") {
			t.Errorf("%s answer = %q", v.RAGType, v.Answer)
		}
		if strings.HasPrefix(v.Answer, guardrail.WarningBanner) {
			t.Errorf("%s answer carries warning banner for a cited answer", v.RAGType)
		}
		if len(v.Citations) == 0 {
			t.Errorf("%s variant has no citations", v.RAGType)
		}
		for _, c := range v.Citations {
			if c.ChunkID == "" || c.PageNumber < 1 {
				t.Errorf("%s citation incomplete: %+v", v.RAGType, c)
			}
		}
		if !strings.Contains(v.CitationsText, models.SourcesMarker) {
			t.Errorf("%s citations text = %q", v.RAGType, v.CitationsText)
		}
	}

	// A second question; both pipelines now carry history.
	second := ask(t, ts, "and what about headcount?")
	if second.Traditional.Error != "" || second.Agentic.Error != "" {
		t.Fatalf("second ask errored: %+v / %+v", second.Traditional, second.Agentic)
	}

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		CurrentFile   string `json:"current_file"`
		Chunks        int    `json:"chunks"`
		Conversations int    `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if status.CurrentFile != "annual-report.txt" {
		t.Errorf("CurrentFile = %q", status.CurrentFile)
	}
	if status.Conversations != 4 {
		t.Errorf("Conversations = %d, want 4 (2 questions x 2 pipelines)", status.Conversations)
	}
	if status.Chunks == 0 {
		t.Error("Chunks = 0")
	}
}

func TestFullFlow_historyIsPerPipeline(t *testing.T) {
	gen := llm.NewScriptedGenerator("Headcount grew to 310, see page 1.")
	ts := startServer(t, gen)
	upload(t, ts, "annual-report.txt", reportText)
	ask(t, ts, "how many employees are there?")

	for _, ragType := range []string{"traditional", "agentic"} {
		resp, err := http.Get(ts.URL + "/api/v1/history?rag_type=" + ragType + "&query=employees")
		if err != nil {
			t.Fatal(err)
		}
		var out struct {
			Turns []models.ConversationTurn `json:"turns"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if len(out.Turns) != 1 {
			t.Errorf("%s turns = %d, want 1", ragType, len(out.Turns))
			continue
		}
		if out.Turns[0].Question != "how many employees are there?" {
			t.Errorf("%s question = %q", ragType, out.Turns[0].Question)
		}
	}
}

func TestFullFlow_uncitedAnswerGetsWarning(t *testing.T) {
	// The model hedges and never cites; the validator must flag but not block.
	gen := llm.NewScriptedGenerator("I think it probably grew somewhat.")
	ts := startServer(t, gen)
	upload(t, ts, "annual-report.txt", reportText)

	result := ask(t, ts, "how much did revenue grow?")
	for _, v := range []*variantPayload{result.Traditional, result.Agentic} {
		if v.Error != "" {
			t.Fatalf("%s variant errored: %s", v.RAGType, v.Error)
		}
		if !strings.HasPrefix(v.Answer, guardrail.WarningBanner) {
			t.Errorf("%s answer missing warning banner: %q", v.RAGType, v.Answer)
		}
		if !strings.Contains(v.Answer, "I think it probably grew somewhat.") {
			t.Errorf("%s original answer was not preserved: %q", v.RAGType, v.Answer)
		}
	}
}

func TestFullFlow_replacingDocumentResetsRetrieval(t *testing.T) {
	gen := llm.NewScriptedGenerator("The kitchen closes at ten, see page 1.")
	ts := startServer(t, gen)
	upload(t, ts, "annual-report.txt", reportText)
	upload(t, ts, "menu.txt", "The kitchen closes at ten. Desserts are seasonal.")

	resp, err := http.Get(ts.URL + "/api/v1/chunks/search?query=revenue")
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(out.Results) != 0 {
		t.Errorf("chunks from the replaced document are still searchable: %d hits", len(out.Results))
	}

	result := ask(t, ts, "when does the kitchen close?")
	if result.Traditional.Error != "" {
		t.Fatalf("traditional errored: %s", result.Traditional.Error)
	}
	if !strings.Contains(result.Traditional.Answer, "ten") {
		t.Errorf("answer = %q", result.Traditional.Answer)
	}
}
