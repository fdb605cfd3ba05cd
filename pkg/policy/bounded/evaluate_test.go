package bounded

import "testing"

// permissiveRules returns a policy that a reasonable weekday-daytime intent
// passes cleanly.
func permissiveRules() Rules {
	return Rules{
		MaxPerPayment:      1_000,
		MaxPerDay:          5_000,
		MaxPerWeek:         20_000,
		AllowedHoursStart:  0,
		AllowedHoursEnd:    24,
		AllowedWeekdayMask: 0x7f,
		MinAIConfidence:    0,
	}
}

// compliantIntent returns an intent that passes permissiveRules.
func compliantIntent() Intent {
	return Intent{
		Amount:       100,
		VendorHash:   0xaaaa,
		CategoryHash: 0xbbbb,
		Timestamp:    1_700_000_000, // 2023-11-14 22:13:20 UTC, a Tuesday
		AIConfidence: 95,
	}
}

// ============================================================================
// Approval and scoring invariants
// ============================================================================

func TestEvaluate_AllCompliant(t *testing.T) {
	intent := compliantIntent()
	rules := permissiveRules()

	eval := Evaluate(&intent, &rules, Spending{})

	if !eval.Approved {
		t.Error("expected approval for compliant intent")
	}
	if eval.RiskScore != 0 {
		t.Errorf("expected risk score 0, got %d", eval.RiskScore)
	}
	if eval.ViolationCount != 0 {
		t.Errorf("expected 0 violations, got %d", eval.ViolationCount)
	}
	if eval.AppliedRules != 0 {
		t.Errorf("expected empty applied-rules mask, got %#x", eval.AppliedRules)
	}
}

func TestEvaluate_PerPaymentLimit(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 150
	rules := permissiveRules()
	rules.MaxPerPayment = 100

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.Approved {
		t.Error("expected rejection")
	}
	if eval.ViolationCount != 1 {
		t.Errorf("expected 1 violation, got %d", eval.ViolationCount)
	}
	if eval.RiskScore != 30 {
		t.Errorf("expected risk score 30, got %d", eval.RiskScore)
	}
	if eval.AppliedRules != 1<<0 {
		t.Errorf("expected bit 0 set, got %#x", eval.AppliedRules)
	}
}

func TestEvaluate_DailyLimit(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 50
	rules := permissiveRules()
	rules.MaxPerDay = 1_000

	// 980 + 50 > 1000, weekly and per-payment both pass.
	eval := Evaluate(&intent, &rules, Spending{Today: 980, Week: 980})

	if eval.ViolationCount != 1 {
		t.Fatalf("expected 1 violation, got %d", eval.ViolationCount)
	}
	if eval.RiskScore != 25 {
		t.Errorf("expected risk score 25, got %d", eval.RiskScore)
	}
	if eval.AppliedRules != 1<<1 {
		t.Errorf("expected bit 1 set, got %#x", eval.AppliedRules)
	}
}

func TestEvaluate_WeeklyLimit(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 50
	rules := permissiveRules()
	rules.MaxPerWeek = 1_000

	eval := Evaluate(&intent, &rules, Spending{Week: 980})

	if eval.AppliedRules != 1<<2 {
		t.Errorf("expected bit 2 set, got %#x", eval.AppliedRules)
	}
	if eval.RiskScore != 20 {
		t.Errorf("expected risk score 20, got %d", eval.RiskScore)
	}
}

func TestEvaluate_RiskScoreSaturates(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 10_000
	intent.AIConfidence = 0
	rules := permissiveRules()
	rules.MaxPerPayment = 1
	rules.MaxPerDay = 1
	rules.MaxPerWeek = 1
	rules.AllowedVendorCount = 1
	rules.AllowedVendorHashes[0] = 0xdead
	rules.MinAIConfidence = 90
	rules.AllowedHoursStart = 25 // never matches: always a violation
	rules.AllowedWeekdayMask = 0
	rules.ConditionalRuleCount = 2
	rules.ConditionTypes = [MaxConditionalRules]uint8{CondAmountGreaterThan, CondAmountGreaterThan}
	rules.ConditionThresholds = [MaxConditionalRules]uint64{1, 2}
	rules.ConditionActions = [MaxConditionalRules]uint8{ActionReject, ActionReject}

	eval := Evaluate(&intent, &rules, Spending{Today: 100, Week: 100})

	if eval.RiskScore != 100 {
		t.Errorf("expected risk score clamped to 100, got %d", eval.RiskScore)
	}
	if eval.Approved {
		t.Error("expected rejection")
	}
	if eval.ViolationCount != 9 {
		t.Errorf("expected 9 violations, got %d", eval.ViolationCount)
	}
}

// ============================================================================
// Vendor allow-list
// ============================================================================

func TestEvaluate_VendorNotInAllowList(t *testing.T) {
	intent := compliantIntent()
	intent.VendorHash = 0xcccc
	rules := permissiveRules()
	rules.AllowedVendorCount = 2
	rules.AllowedVendorHashes[0] = 0xaaaa
	rules.AllowedVendorHashes[1] = 0xbbbb

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<3 {
		t.Errorf("expected bit 3 set, got %#x", eval.AppliedRules)
	}
	if eval.RiskScore != 25 {
		t.Errorf("expected risk score 25, got %d", eval.RiskScore)
	}
}

func TestEvaluate_EmptyVendorListNeverFires(t *testing.T) {
	intent := compliantIntent()
	intent.VendorHash = 0xcccc
	rules := permissiveRules()
	rules.AllowedVendorCount = 0

	eval := Evaluate(&intent, &rules, Spending{})

	if !eval.Approved {
		t.Error("empty allow-list must not restrict vendors")
	}
}

func TestEvaluate_VendorCountClampedToCapacity(t *testing.T) {
	intent := compliantIntent()
	intent.VendorHash = 0xcccc
	rules := permissiveRules()
	// Count beyond capacity: only the first 10 slots exist.
	rules.AllowedVendorCount = 12
	for i := range rules.AllowedVendorHashes {
		rules.AllowedVendorHashes[i] = uint64(i + 1)
	}

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<3 {
		t.Errorf("expected vendor violation only, got %#x", eval.AppliedRules)
	}

	// A vendor in the last physical slot is still found.
	intent.VendorHash = 10
	eval = Evaluate(&intent, &rules, Spending{})
	if !eval.Approved {
		t.Error("vendor in slot 10 should be allowed")
	}
}

// ============================================================================
// Category cap table
// ============================================================================

func TestEvaluate_CategoryCapFirstMatchWins(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 500
	rules := permissiveRules()
	rules.CategoryRuleCount = 2
	rules.CategoryHashes[0] = intent.CategoryHash
	rules.CategoryMaxAmounts[0] = 400
	// Second row for the same category with a generous cap must never be
	// consulted.
	rules.CategoryHashes[1] = intent.CategoryHash
	rules.CategoryMaxAmounts[1] = 10_000

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<4 {
		t.Errorf("expected bit 4 set, got %#x", eval.AppliedRules)
	}
	if eval.RiskScore != 20 {
		t.Errorf("expected risk score 20, got %d", eval.RiskScore)
	}
}

func TestEvaluate_CategoryCapBitTracksSlot(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 500
	rules := permissiveRules()
	rules.CategoryRuleCount = 3
	rules.CategoryHashes[0] = 0x1
	rules.CategoryHashes[1] = 0x2
	rules.CategoryHashes[2] = intent.CategoryHash
	rules.CategoryMaxAmounts[2] = 400

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<6 {
		t.Errorf("expected bit 6 (slot 2) set, got %#x", eval.AppliedRules)
	}
}

func TestEvaluate_CategoryUnderCapPasses(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 300
	rules := permissiveRules()
	rules.CategoryRuleCount = 1
	rules.CategoryHashes[0] = intent.CategoryHash
	rules.CategoryMaxAmounts[0] = 400

	eval := Evaluate(&intent, &rules, Spending{})

	if !eval.Approved {
		t.Error("amount under category cap must pass")
	}
}

// ============================================================================
// Time and weekday windows
// ============================================================================

func TestEvaluate_HourWindow(t *testing.T) {
	rules := permissiveRules()
	rules.AllowedHoursStart = 9
	rules.AllowedHoursEnd = 17

	tests := []struct {
		name    string
		hour    uint64
		outside bool
	}{
		{"before start", 8, true},
		{"at start", 9, false},
		{"inside", 12, false},
		{"at end is excluded", 17, true},
		{"late evening", 23, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := compliantIntent()
			intent.Timestamp = tt.hour * 3600 // epoch day, hour tt.hour

			eval := Evaluate(&intent, &rules, Spending{})

			fired := eval.AppliedRules&(1<<13) != 0
			if fired != tt.outside {
				t.Errorf("hour %d: window violation = %v, want %v", tt.hour, fired, tt.outside)
			}
			if tt.outside && eval.RiskScore != 15 {
				t.Errorf("expected risk score 15, got %d", eval.RiskScore)
			}
		})
	}
}

func TestEvaluate_DegenerateHourWindowAlwaysFires(t *testing.T) {
	rules := permissiveRules()
	// Out-of-range scalars are accepted as-is and never match.
	rules.AllowedHoursStart = 30
	rules.AllowedHoursEnd = 40

	for hour := uint64(0); hour < 24; hour++ {
		intent := compliantIntent()
		intent.Timestamp = hour * 3600

		eval := Evaluate(&intent, &rules, Spending{})
		if eval.AppliedRules&(1<<13) == 0 {
			t.Fatalf("hour %d: degenerate window must always violate", hour)
		}
	}
}

func TestWeekday_EpochPin(t *testing.T) {
	// The epoch is a Thursday; the formula must map timestamp 0 to index 4
	// on every run.
	if got := Weekday(0); got != 4 {
		t.Fatalf("Weekday(0) = %d, want 4", got)
	}

	// One day later is index 5, and the week wraps after index 6.
	if got := Weekday(86400); got != 5 {
		t.Errorf("Weekday(86400) = %d, want 5", got)
	}
	if got := Weekday(3 * 86400); got != 0 {
		t.Errorf("Weekday(3 days) = %d, want 0", got)
	}
}

func TestEvaluate_WeekdayMask(t *testing.T) {
	intent := compliantIntent()
	intent.Timestamp = 0 // weekday 4
	rules := permissiveRules()
	rules.AllowedWeekdayMask = 0x7f &^ (1 << 4)

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<14 {
		t.Errorf("expected bit 14 set, got %#x", eval.AppliedRules)
	}
	if eval.RiskScore != 10 {
		t.Errorf("expected risk score 10, got %d", eval.RiskScore)
	}
}

// ============================================================================
// AI confidence
// ============================================================================

func TestEvaluate_AIConfidenceFloor(t *testing.T) {
	intent := compliantIntent()
	intent.AIConfidence = 85
	rules := permissiveRules()
	rules.MinAIConfidence = 90

	eval := Evaluate(&intent, &rules, Spending{})

	if eval.AppliedRules != 1<<12 {
		t.Errorf("expected bit 12 set, got %#x", eval.AppliedRules)
	}
	if eval.RiskScore != 10 {
		t.Errorf("expected risk score 10, got %d", eval.RiskScore)
	}

	intent.AIConfidence = 90 // boundary: >= passes
	eval = Evaluate(&intent, &rules, Spending{})
	if !eval.Approved {
		t.Error("confidence equal to the floor must pass")
	}
}

// ============================================================================
// Determinism and tracing
// ============================================================================

func TestEvaluate_Deterministic(t *testing.T) {
	intent := compliantIntent()
	intent.Amount = 5_000
	rules := permissiveRules()
	rules.MaxPerPayment = 100
	rules.AllowedWeekdayMask = 0

	first := Evaluate(&intent, &rules, Spending{Today: 1, Week: 2})
	for i := 0; i < 50; i++ {
		if got := Evaluate(&intent, &rules, Spending{Today: 1, Week: 2}); got != first {
			t.Fatalf("run %d diverged: %+v != %+v", i, got, first)
		}
	}
}

type recordingTracer struct {
	steps []string
	fired []bool
}

func (r *recordingTracer) Step(name string, fired bool) {
	r.steps = append(r.steps, name)
	r.fired = append(r.fired, fired)
}

func TestEvaluator_TracerObservesCategories(t *testing.T) {
	intent := compliantIntent()
	rules := permissiveRules()

	tracer := &recordingTracer{}
	NewEvaluator(tracer).Evaluate(&intent, &rules, Spending{})

	want := []string{
		"per_payment_limit", "daily_limit", "weekly_limit",
		"vendor_allow_list", "category_cap",
		"ai_confidence", "hour_window", "weekday_window",
	}
	if len(tracer.steps) != len(want) {
		t.Fatalf("expected %d steps, got %d: %v", len(want), len(tracer.steps), tracer.steps)
	}
	for i, name := range want {
		if tracer.steps[i] != name {
			t.Errorf("step %d = %q, want %q", i, tracer.steps[i], name)
		}
		if tracer.fired[i] {
			t.Errorf("step %q should not have fired", name)
		}
	}
}
