package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clearline-hq/verdict/pkg/config"
	"clearline-hq/verdict/pkg/ledger"
	"clearline-hq/verdict/pkg/policy/flex"
	"clearline-hq/verdict/pkg/policy/manager"
	"clearline-hq/verdict/pkg/policy/source"
	"clearline-hq/verdict/pkg/telemetry/metrics"
)

const testTimestamp = 1_700_000_000 // hour 22, weekday 2

func permissivePolicy() *source.Policy {
	return &source.Policy{
		Name:    "travel",
		Version: "3",
		Rules: flex.Rules{
			MaxPerPayment:     1_000,
			MaxPerDay:         5_000,
			MaxPerWeek:        20_000,
			AllowedHoursStart: 0,
			AllowedHoursEnd:   24,
			AllowedWeekdays:   []uint8{0, 1, 2, 3, 4, 5, 6},
		},
	}
}

func newTestServer(t *testing.T, policies ...*source.Policy) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mgr := manager.NewManager(source.NewMemorySource(policies...), logger)
	if len(policies) > 0 {
		if err := mgr.Reload(context.Background()); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}

	store := ledger.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	srv, err := NewServer(Options{
		Config:  &cfg.Server,
		Logger:  logger,
		Manager: mgr,
		Ledger:  store,
		Metrics: metrics.NewCollector(nil),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func postDecision(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/v1/decisions", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeDecision(t *testing.T, rec *httptest.ResponseRecorder) DecisionResponse {
	t.Helper()

	var resp DecisionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not a decision: %v\n%s", err, rec.Body.String())
	}
	return resp
}

// ============================================================================
// Decision Endpoint Tests
// ============================================================================

func TestHandleDecision_Approved(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	rec := postDecision(t, srv, DecisionRequest{
		Account: "acct-1",
		Policy:  "travel",
		Intent: flex.Intent{
			Amount:       300,
			Recipient:    "alice",
			Vendor:       "acme-air",
			Category:     "flights",
			Timestamp:    testTimestamp,
			AIConfidence: 95,
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeDecision(t, rec)
	if !resp.Approved {
		t.Errorf("expected approval, got reason %q violations %v", resp.Reason, resp.Violations)
	}
	if resp.DecisionID == "" {
		t.Error("expected a decision ID")
	}
	if resp.Policy != "travel" || resp.PolicyVersion != "3" {
		t.Errorf("policy identity = %s/%s", resp.Policy, resp.PolicyVersion)
	}
	if len(resp.PolicyFingerprint) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(resp.PolicyFingerprint))
	}
	if resp.SpentToday != 0 || resp.SpentThisWeek != 0 {
		t.Errorf("expected zero prior totals, got %d/%d", resp.SpentToday, resp.SpentThisWeek)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHandleDecision_ApprovedSpendAccumulates(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	intent := flex.Intent{
		Amount:       400,
		Vendor:       "acme-air",
		Category:     "flights",
		Timestamp:    testTimestamp,
		AIConfidence: 95,
	}

	first := decodeDecision(t, postDecision(t, srv, DecisionRequest{
		Account: "acct-1", Policy: "travel", Intent: intent,
	}))
	if !first.Approved {
		t.Fatalf("first decision rejected: %v", first.Violations)
	}

	second := decodeDecision(t, postDecision(t, srv, DecisionRequest{
		Account: "acct-1", Policy: "travel", Intent: intent,
	}))
	if second.SpentToday != 400 || second.SpentThisWeek != 400 {
		t.Errorf("prior totals = %d/%d, want 400/400", second.SpentToday, second.SpentThisWeek)
	}
}

func TestHandleDecision_RejectedSpendNotCommitted(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	rec := postDecision(t, srv, DecisionRequest{
		Account: "acct-1",
		Policy:  "travel",
		Intent: flex.Intent{
			Amount:       5_000, // over max_per_payment
			Timestamp:    testTimestamp,
			AIConfidence: 95,
		},
	})

	resp := decodeDecision(t, rec)
	if resp.Approved {
		t.Fatal("expected rejection")
	}
	if resp.ViolationCount == 0 || len(resp.Violations) == 0 {
		t.Error("expected violations in response")
	}

	// A rejected payment must not move the totals.
	next := decodeDecision(t, postDecision(t, srv, DecisionRequest{
		Account: "acct-1",
		Policy:  "travel",
		Intent: flex.Intent{
			Amount:       100,
			Timestamp:    testTimestamp,
			AIConfidence: 95,
		},
	}))
	if next.SpentToday != 0 {
		t.Errorf("spent today = %d after rejected payment, want 0", next.SpentToday)
	}
}

func TestHandleDecision_UnknownPolicy(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	rec := postDecision(t, srv, DecisionRequest{
		Account: "acct-1",
		Policy:  "missing",
		Intent:  flex.Intent{Amount: 100, Timestamp: testTimestamp},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDecision_BadRequests(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"account": `},
		{"unknown field", `{"account":"a","policy":"travel","intents":{}}`},
		{"missing account", `{"policy":"travel","intent":{"amount":100}}`},
		{"missing policy", `{"account":"a","intent":{"amount":100}}`},
		{"zero amount", `{"account":"a","policy":"travel","intent":{"amount":0}}`},
		{"confidence out of range", `{"account":"a","policy":"travel","intent":{"amount":1,"ai_confidence":101}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/decisions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleDecision_ClientRequestIDHonored(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-chosen-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "client-chosen-id" {
		t.Errorf("request ID = %q, want client-chosen-id", got)
	}
}

// ============================================================================
// Policy and Health Endpoint Tests
// ============================================================================

func TestHandlePolicies(t *testing.T) {
	second := permissivePolicy()
	second.Name = "procurement"
	srv := newTestServer(t, permissivePolicy(), second)

	req := httptest.NewRequest("GET", "/v1/policies", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Policies []PolicySummary `json:"policies"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || len(resp.Policies) != 2 {
		t.Errorf("count = %d, policies = %d", resp.Count, len(resp.Policies))
	}
	for _, p := range resp.Policies {
		if len(p.Fingerprint) != 64 {
			t.Errorf("policy %s fingerprint length = %d", p.Name, len(p.Fingerprint))
		}
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleHealth_NoPoliciesIsUnavailable(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	srv := newTestServer(t, permissivePolicy())

	postDecision(t, srv, DecisionRequest{
		Account: "acct-1",
		Policy:  "travel",
		Intent:  flex.Intent{Amount: 100, Timestamp: testTimestamp, AIConfidence: 95},
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "verdict_decisions_total") {
		t.Error("expected decision counter in metrics exposition")
	}
}

// ============================================================================
// Server Lifecycle Tests
// ============================================================================

func TestNewServer_RequiresDependencies(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := manager.NewManager(source.NewMemorySource(), logger)
	store := ledger.NewMemoryStore()
	defer store.Close()

	if _, err := NewServer(Options{Manager: mgr, Ledger: store}); err == nil {
		t.Error("expected error without config")
	}
	if _, err := NewServer(Options{Config: &cfg.Server, Ledger: store}); err == nil {
		t.Error("expected error without manager")
	}
	if _, err := NewServer(Options{Config: &cfg.Server, Manager: mgr}); err == nil {
		t.Error("expected error without ledger")
	}
}

func TestRecoveryMiddleware_TurnsPanicInto500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := recoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
