package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MimeLyc/localcat/internal/glossary"
	"github.com/MimeLyc/localcat/internal/persistence"
	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/internal/session"
	"github.com/MimeLyc/localcat/internal/tm"
)

type hitResponse struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Origin   string `json:"origin"`
	Priority int    `json:"priority"`
}

type matchResponse struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
	Kind       string  `json:"kind"`
	Origin     string  `json:"origin"`
	UsageCount int     `json:"usage_count"`
	LastUsed   string  `json:"last_used"`
}

type queryResponse struct {
	Text     string         `json:"text"`
	Outcome  string         `json:"outcome"`
	Match    *matchResponse `json:"match,omitempty"`
	Hits     []hitResponse  `json:"hits"`
	Rendered string         `json:"rendered,omitempty"`
}

type saveRequest struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	ContextPrev string `json:"context_prev"`
	ContextNext string `json:"context_next"`
	Speaker     string `json:"speaker"`
	FileSource  string `json:"file_source"`
}

type runRequest struct {
	Paths []string `json:"paths"`
}

type runResponse struct {
	ID        string         `json:"id"`
	Sources   []string       `json:"sources"`
	StartedAt time.Time      `json:"started_at"`
	Counts    map[string]int `json:"counts"`
}

type runSummaryResponse struct {
	RunID    string         `json:"run_id"`
	Segments int            `json:"segments"`
	Reports  []string       `json:"reports"`
	Counts   map[string]int `json:"counts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	text := r.URL.Query().Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse(s.backend.Lookup(text)))
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	m, err := s.backend.Save(segment.Segment{
		Text:          req.Source,
		ContextBefore: req.ContextPrev,
		ContextAfter:  req.ContextNext,
		Speaker:       req.Speaker,
		OriginFile:    req.FileSource,
	}, req.Target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMatchResponse(m))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		runs, err := s.backend.History(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRunResponses(runs))
	case http.MethodPost:
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		summary, err := s.backend.RunFiles(r.Context(), req.Paths)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		reports := make([]string, 0, len(summary.Files))
		for _, f := range summary.Files {
			reports = append(reports, f.ReportPath)
		}
		writeJSON(w, http.StatusCreated, runSummaryResponse{
			RunID:    summary.RunID,
			Segments: summary.Segments(),
			Reports:  reports,
			Counts:   countsResponse(summary.Counts),
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func newQueryResponse(res session.Result) queryResponse {
	ret := queryResponse{
		Text:     res.Segment.Text,
		Outcome:  string(res.Outcome),
		Hits:     newHitResponses(res.Hits),
		Rendered: res.Rendered,
	}
	if res.Match != nil {
		m := newMatchResponse(*res.Match)
		ret.Match = &m
	}
	return ret
}

func newMatchResponse(m tm.Match) matchResponse {
	return matchResponse{
		Source:     m.Source,
		Target:     m.Target,
		Similarity: m.Similarity,
		Kind:       string(m.Kind),
		Origin:     m.Origin,
		UsageCount: m.UsageCount,
		LastUsed:   m.LastUsed,
	}
}

func newHitResponses(hits []glossary.Hit) []hitResponse {
	ret := make([]hitResponse, 0, len(hits))
	for _, h := range hits {
		ret = append(ret, hitResponse{
			Source:   h.Source,
			Target:   h.Target,
			Start:    h.Start,
			End:      h.End,
			Origin:   h.Origin,
			Priority: h.Priority,
		})
	}
	return ret
}

func newRunResponses(runs []service.RunOverview) []runResponse {
	ret := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		ret = append(ret, runResponse{
			ID:        run.ID,
			Sources:   run.Sources,
			StartedAt: run.StartedAt,
			Counts:    countsResponse(run.Counts),
		})
	}
	return ret
}

func countsResponse(counts persistence.OutcomeCounts) map[string]int {
	ret := make(map[string]int, len(counts))
	for outcome, n := range counts {
		ret[string(outcome)] = n
	}
	return ret
}

// writeServiceError maps service error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsErrorType(err, service.ErrValidation), service.IsErrorType(err, service.ErrParse):
		status = http.StatusBadRequest
	case service.IsErrorType(err, service.ErrFileNotFound):
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
