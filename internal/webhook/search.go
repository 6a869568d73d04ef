package webhook

import (
	"net/http"
	"strings"

	"github.com/voicehooks/gateway/internal/codec"
	"github.com/voicehooks/gateway/internal/domain"
	"github.com/voicehooks/gateway/internal/server"
)

// SearchRequest is the /search input payload.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the /search success payload. A negative outcome goes out
// as the shared miss body, a normal 200 the agent can vocalize.
type SearchResponse struct {
	Found   bool   `json:"found"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// Search handles POST /search: one knowledge-base lookup, first result wins.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		codec.WriteError(w, domain.ErrInvalidInput("query is required"))
		return
	}

	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		server.AddError(r.Context(), err)
		if domain.IsNotFound(err) {
			writeMiss(w, noResultsMessage)
			return
		}
		codec.WriteError(w, err)
		return
	}

	if len(results) == 0 {
		writeMiss(w, noResultsMessage)
		return
	}

	first := results[0]
	writeJSON(w, SearchResponse{
		Found:   true,
		Summary: first.Snippet,
		Source:  first.Title,
	})
}

const noResultsMessage = "I couldn't find any information about that. Would you like to try a different search?"
