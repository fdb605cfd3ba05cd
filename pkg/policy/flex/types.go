package flex

import "github.com/cespare/xxhash/v2"

// Intent is a payment request with text identities. Amount is in the
// smallest currency unit, Timestamp in seconds since the Unix epoch,
// AIConfidence scaled 0-100.
type Intent struct {
	Amount       uint64 `json:"amount" yaml:"amount"`
	Recipient    string `json:"recipient" yaml:"recipient"`
	Vendor       string `json:"vendor" yaml:"vendor"`
	Category     string `json:"category" yaml:"category"`
	Timestamp    uint64 `json:"timestamp" yaml:"timestamp"`
	AIConfidence uint64 `json:"ai_confidence" yaml:"ai_confidence"`
}

// ConditionalRule is one (condition, threshold, action) row. Types and
// actions use the same codes as the bounded variant.
type ConditionalRule struct {
	Type      uint8  `json:"type" yaml:"type"`
	Threshold uint64 `json:"threshold" yaml:"threshold"`
	Action    uint8  `json:"action" yaml:"action"`
}

// Rules is the dynamic policy configuration.
type Rules struct {
	MaxPerPayment uint64 `json:"max_per_payment" yaml:"max_per_payment"`
	MaxPerDay     uint64 `json:"max_per_day" yaml:"max_per_day"`
	MaxPerWeek    uint64 `json:"max_per_week" yaml:"max_per_week"`

	// Half-open hour window [Start, End).
	AllowedHoursStart uint8 `json:"allowed_hours_start" yaml:"allowed_hours_start"`
	AllowedHoursEnd   uint8 `json:"allowed_hours_end" yaml:"allowed_hours_end"`

	// AllowedWeekdays lists permitted weekday indexes (0-6, 0 anchored at
	// the epoch Thursday convention). An empty list permits nothing, the
	// same as a zero weekday mask in the bounded variant.
	AllowedWeekdays []uint8 `json:"allowed_weekdays" yaml:"allowed_weekdays"`

	// AllowedVendors restricts vendors when non-empty.
	AllowedVendors []string `json:"allowed_vendors" yaml:"allowed_vendors"`

	// CategoryLimits caps spending per category text.
	CategoryLimits map[string]uint64 `json:"category_limits" yaml:"category_limits"`

	// BlockedKeywords are matched case-insensitively against vendor and
	// category text; every match is an independent violation.
	BlockedKeywords []string `json:"blocked_keywords" yaml:"blocked_keywords"`

	ConditionalRules []ConditionalRule `json:"conditional_rules" yaml:"conditional_rules"`

	MinAIConfidence uint64 `json:"min_ai_confidence" yaml:"min_ai_confidence"`
}

// Spending holds the running totals committed before this intent. The caller
// owns the ledger.
type Spending struct {
	Today uint64 `json:"today" yaml:"today"`
	Week  uint64 `json:"week" yaml:"week"`
}

// Evaluation is the decision produced by one evaluation.
type Evaluation struct {
	// Approved is true iff no rule fired.
	Approved bool `json:"approved"`

	// Reason confirms that all checks passed or concatenates every
	// violation message.
	Reason string `json:"reason"`

	// RiskScore is the accumulated rule weight, clamped to 100.
	RiskScore uint8 `json:"risk_score"`

	// ViolationCount is the number of rules that fired.
	ViolationCount uint8 `json:"violation_count"`

	// Violations holds one message per rule that fired, in rule order.
	Violations []string `json:"violations,omitempty"`

	// PolicyFingerprint binds the decision to the policy that produced it.
	PolicyFingerprint [32]byte `json:"policy_fingerprint"`
}

// HashIdentity folds a text identity to the numeric form used wherever rules
// compare identities as integers.
func HashIdentity(s string) uint64 {
	return xxhash.Sum64String(s)
}
