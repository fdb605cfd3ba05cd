package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clearline-hq/verdict/pkg/policy/flex"
)

// DecisionRequest is the body of POST /v1/decisions.
type DecisionRequest struct {
	// Account identifies the spending account the intent draws from.
	Account string `json:"account"`

	// Policy names the policy to evaluate against.
	Policy string `json:"policy"`

	// Intent is the payment to decide. A zero timestamp is filled with
	// the server's current time.
	Intent flex.Intent `json:"intent"`
}

// DecisionResponse is the body of a successful decision.
type DecisionResponse struct {
	DecisionID        string   `json:"decision_id"`
	Policy            string   `json:"policy"`
	PolicyVersion     string   `json:"policy_version"`
	PolicyFingerprint string   `json:"policy_fingerprint"`
	Approved          bool     `json:"approved"`
	Reason            string   `json:"reason"`
	RiskScore         uint8    `json:"risk_score"`
	ViolationCount    uint8    `json:"violation_count"`
	Violations        []string `json:"violations,omitempty"`
	SpentToday        uint64   `json:"spent_today"`
	SpentThisWeek     uint64   `json:"spent_this_week"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// handleDecision evaluates one payment intent.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req DecisionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if req.Policy == "" {
		writeError(w, http.StatusBadRequest, "policy is required")
		return
	}
	if req.Intent.Amount == 0 {
		writeError(w, http.StatusBadRequest, "intent.amount must be positive")
		return
	}
	if req.Intent.AIConfidence > 100 {
		writeError(w, http.StatusBadRequest, "intent.ai_confidence must be 0-100")
		return
	}

	policy, ok := s.manager.Get(req.Policy)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown policy %q", req.Policy)
		return
	}

	intent := req.Intent
	if intent.Timestamp == 0 {
		intent.Timestamp = uint64(time.Now().Unix())
	}

	totals, err := s.ledger.Totals(r.Context(), req.Account, intent.Timestamp)
	if err != nil {
		s.logger.Error("ledger totals failed",
			"account", req.Account,
			"error", err,
			"request_id", requestID(r.Context()),
		)
		writeError(w, http.StatusServiceUnavailable, "ledger unavailable")
		return
	}

	eval := flex.Evaluate(&intent, &policy.Rules, flex.Spending{
		Today: totals.Today,
		Week:  totals.Week,
	})

	// Only approved spending counts toward future totals.
	if eval.Approved {
		if err := s.ledger.Commit(r.Context(), req.Account, intent.Amount, intent.Timestamp); err != nil {
			s.logger.Error("ledger commit failed",
				"account", req.Account,
				"error", err,
				"request_id", requestID(r.Context()),
			)
			writeError(w, http.StatusServiceUnavailable, "ledger unavailable")
			return
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(req.Policy, eval.Approved, eval.RiskScore,
			int(eval.ViolationCount), time.Since(start))
	}

	resp := DecisionResponse{
		DecisionID:        uuid.NewString(),
		Policy:            policy.Name,
		PolicyVersion:     policy.Version,
		PolicyFingerprint: hex.EncodeToString(eval.PolicyFingerprint[:]),
		Approved:          eval.Approved,
		Reason:            eval.Reason,
		RiskScore:         eval.RiskScore,
		ViolationCount:    eval.ViolationCount,
		Violations:        eval.Violations,
		SpentToday:        totals.Today,
		SpentThisWeek:     totals.Week,
	}

	s.logger.Info("decision",
		"decision_id", resp.DecisionID,
		"account", req.Account,
		"policy", req.Policy,
		"approved", eval.Approved,
		"risk_score", eval.RiskScore,
		"violations", eval.ViolationCount,
		"request_id", requestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, resp)
}

// PolicySummary is one entry of GET /v1/policies.
type PolicySummary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Fingerprint string `json:"fingerprint"`
}

// handlePolicies lists the active policy set.
func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	names := s.manager.Names()
	summaries := make([]PolicySummary, 0, len(names))
	for _, name := range names {
		p, ok := s.manager.Get(name)
		if !ok {
			continue
		}
		fp := flex.Fingerprint(&p.Rules)
		summaries = append(summaries, PolicySummary{
			Name:        p.Name,
			Version:     p.Version,
			Fingerprint: hex.EncodeToString(fp[:]),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"policies": summaries,
		"count":    len(summaries),
	})
}

// handleHealth reports liveness. The service is ready once at least
// one policy is loaded and the ledger answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if s.manager.Len() == 0 {
		status = "no policies loaded"
		code = http.StatusServiceUnavailable
	} else if _, err := s.ledger.Totals(r.Context(), "healthcheck", uint64(time.Now().Unix())); err != nil {
		status = "ledger unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]string{"status": status})
}
