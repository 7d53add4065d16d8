package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/service"
	"go.uber.org/zap"
)

// maxUploadBytes caps the multipart upload size.
const maxUploadBytes = 64 << 20

type uploadResponse struct {
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
	Status   string `json:"status"`
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	s.logger.Debug("upload request", zap.String("file_name", header.Filename), zap.Int("bytes", len(content)))

	chunks, err := s.svc.Upload(r.Context(), header.Filename, content)
	if err != nil {
		s.logger.Error("upload failed", zap.String("file_name", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{
		FileName: header.Filename,
		Chunks:   chunks,
		Status:   "indexed",
	})
}

type askRequest struct {
	Query string `json:"query"`
}

type variantResponse struct {
	RAGType       models.RAGType    `json:"rag_type"`
	Answer        string            `json:"answer,omitempty"`
	Citations     []models.Citation `json:"citations,omitempty"`
	CitationsText string            `json:"citations_text,omitempty"`
	Error         string            `json:"error,omitempty"`
}

type askResponse struct {
	Query       string           `json:"query"`
	Traditional *variantResponse `json:"traditional"`
	Agentic     *variantResponse `json:"agentic"`
}

func variantToResponse(v *service.VariantResult) *variantResponse {
	if v == nil {
		return nil
	}
	resp := &variantResponse{
		RAGType:       v.RAGType,
		Answer:        v.Answer,
		Citations:     v.Citations,
		CitationsText: v.CitationsText,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	return resp
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("ask request", zap.String("query", req.Query))

	result, err := s.svc.Ask(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, service.ErrNoDocument) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, askResponse{
		Query:       result.Query,
		Traditional: variantToResponse(result.Traditional),
		Agentic:     variantToResponse(result.Agentic),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ragType := models.RAGType(r.URL.Query().Get("rag_type"))
	if !ragType.Valid() {
		s.respondError(w, http.StatusBadRequest, "rag_type must be 'traditional' or 'agentic'")
		return
	}
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := parseIntParam(r, "limit", 0)
	turns, err := s.svc.History(r.Context(), query, ragType, limit)
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rag_type": ragType,
		"turns":    turns,
	})
}

func (s *Server) handleSearchChunks(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := parseIntParam(r, "limit", 10)
	results, err := s.svc.SearchChunks(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("chunk search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
