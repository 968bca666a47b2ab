package handler

import (
	"net/http"

	"github.com/matthewbaird/leadpilot/internal/signals"
	"github.com/matthewbaird/leadpilot/internal/types"
)

// maxDigestItems bounds one digest request.
const maxDigestItems = 500

// ExplainHandler serves the explanation engine. It holds no state.
type ExplainHandler struct{}

func NewExplainHandler() *ExplainHandler {
	return &ExplainHandler{}
}

// Explain builds one explanation.
// POST /v1/explanations
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var in signals.ExplanationInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, signals.BuildExplanation(in))
}

type digestRequest struct {
	Items []signals.ExplanationInput `json:"items"`
}

type digestResponse struct {
	Explanations []types.Explanation `json:"explanations"`
	Digest       signals.Digest      `json:"digest"`
}

// Digest explains every item and aggregates the results.
// POST /v1/explanations/digest
func (h *ExplainHandler) Digest(w http.ResponseWriter, r *http.Request) {
	var req digestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if len(req.Items) > maxDigestItems {
		writeError(w, http.StatusBadRequest, "TOO_MANY_ITEMS", "a digest accepts at most 500 items")
		return
	}

	resp := digestResponse{Explanations: make([]types.Explanation, 0, len(req.Items))}
	for _, in := range req.Items {
		resp.Explanations = append(resp.Explanations, signals.BuildExplanation(in))
	}
	resp.Digest = signals.Aggregate(resp.Explanations)
	writeJSON(w, http.StatusOK, resp)
}

type analyzeRequest struct {
	signals.Email
	Suggestion string        `json:"ai_reply_suggestion,omitempty"`
	Lead       *signals.Lead `json:"lead,omitempty"`
}

type analyzeResponse struct {
	Analysis        signals.Analysis   `json:"analysis"`
	Explanation     types.Explanation  `json:"explanation"`
	LeadExplanation *types.Explanation `json:"lead_explanation,omitempty"`
}

// AnalyzeEmail classifies an email and explains the reply decision. When a
// lead is attached the lead decision is explained too.
// POST /v1/emails/analyze
func (h *ExplainHandler) AnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	a := signals.Analyze(req.Email, req.Suggestion)
	resp := analyzeResponse{
		Analysis:    a,
		Explanation: signals.ExplainEmail(req.Email, a),
	}
	if req.Lead != nil {
		e := signals.ExplainLead(*req.Lead, req.Email, a)
		resp.LeadExplanation = &e
	}
	writeJSON(w, http.StatusOK, resp)
}
