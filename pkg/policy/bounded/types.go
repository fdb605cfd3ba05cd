package bounded

// Capacity constants for the fixed-size policy tables. All evaluation loops
// are bounded by counts clamped to these values, never by raw array size.
const (
	// MaxVendors is the capacity of the vendor allow-list.
	MaxVendors = 10

	// MaxCategoryRules is the capacity of the per-category cap table.
	MaxCategoryRules = 5

	// MaxConditionalRules is the capacity of the conditional rule table.
	MaxConditionalRules = 5
)

// Intent is a single payment request under evaluation.
//
// Identities are opaque fixed-width hashes supplied by the caller; the core
// only ever compares them for equality. Amount is in the smallest currency
// unit. Timestamp is seconds since the Unix epoch. AIConfidence is scaled
// 0-100. An Intent is constructed once per evaluation and never mutated.
type Intent struct {
	Amount        uint64
	RecipientHash uint64
	VendorHash    uint64
	CategoryHash  uint64
	Timestamp     uint64
	AIConfidence  uint64
}

// Rules is a versionable policy configuration.
//
// List-like fields carry an explicit count plus a fixed-size backing array.
// Counts are clamped to capacity before any loop reads them; entries beyond
// capacity are ignored. A Rules value is immutable during one evaluation and
// may be reused across many evaluations with different intents.
type Rules struct {
	// Scalar spending limits, smallest currency unit.
	MaxPerPayment uint64
	MaxPerDay     uint64
	MaxPerWeek    uint64

	// Time-of-day window, half-open [Start, End). Hours outside 0-23 never
	// match and make the window check always fire.
	AllowedHoursStart uint8
	AllowedHoursEnd   uint8

	// AllowedWeekdayMask permits weekday i when bit i is set.
	AllowedWeekdayMask uint8

	// Vendor allow-list. An empty list means no vendor restriction.
	AllowedVendorCount  uint8
	AllowedVendorHashes [MaxVendors]uint64

	// Per-category cap table. First matching row wins.
	CategoryRuleCount  uint8
	CategoryHashes     [MaxCategoryRules]uint64
	CategoryMaxAmounts [MaxCategoryRules]uint64

	// Conditional rule table, each row evaluated independently.
	ConditionalRuleCount uint8
	ConditionTypes       [MaxConditionalRules]uint8
	ConditionThresholds  [MaxConditionalRules]uint64
	ConditionActions     [MaxConditionalRules]uint8

	// MinAIConfidence is the minimum acceptable AI confidence, 0-100.
	MinAIConfidence uint64
}

// Spending holds the running totals committed before this intent. The caller
// owns the ledger; the core treats these as read-only inputs.
type Spending struct {
	// Today is spending already committed today.
	Today uint64

	// Week is spending already committed this ISO week.
	Week uint64
}

// Evaluation is the decision produced by one evaluation.
type Evaluation struct {
	// Approved is true iff no rule category fired.
	Approved bool

	// RiskScore is the accumulated rule weight, saturating, clamped to 100.
	RiskScore uint8

	// ViolationCount is incremented once per rule category that fired.
	ViolationCount uint8

	// AppliedRules records which rule categories fired, one bit per
	// category (a bit range for indexed sub-rules).
	AppliedRules uint64
}

// Rule weights added to the risk score when a category fires.
const (
	weightPerPayment      = 30
	weightDaily           = 25
	weightWeekly          = 20
	weightVendor          = 25
	weightCategory        = 20
	weightReject          = 50
	weightRequireApproval = 15
	weightConfidence      = 10
	weightHours           = 15
	weightWeekday         = 10
)

// Applied-rules mask layout. Category cap rows occupy one bit per table slot
// starting at bit 4; conditional rules start at bit 8.
const (
	maskPerPayment = 1 << 0
	maskDaily      = 1 << 1
	maskWeekly     = 1 << 2
	maskVendor     = 1 << 3
	maskCategory0  = 1 << 4
	maskCondition0 = 1 << 8
	maskConfidence = 1 << 12
	maskHours      = 1 << 13
	maskWeekday    = 1 << 14
)

// clampCount bounds a table count to its capacity. Overflow entries are
// silently discarded rather than rejected.
func clampCount(n uint8, capacity int) int {
	if int(n) > capacity {
		return capacity
	}
	return int(n)
}

// HourOfDay derives the UTC hour (0-23) from a Unix timestamp.
func HourOfDay(timestamp uint64) uint8 {
	return uint8(timestamp / 3600 % 24)
}

// Weekday derives the weekday index (0-6) from a Unix timestamp. The +4
// offset anchors the epoch, a Thursday, at index 4; the exact formula is
// load-bearing because it defines which integer represents which day.
func Weekday(timestamp uint64) uint8 {
	return uint8((timestamp/86400 + 4) % 7)
}
