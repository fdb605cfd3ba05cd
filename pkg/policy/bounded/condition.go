package bounded

// Condition types understood by the conditional rule interpreter. A type
// outside this range always evaluates false; unknown types are inert, not
// errors.
const (
	CondAmountGreaterThan    uint8 = 1
	CondAmountLessThan       uint8 = 2
	CondAIConfidenceLessThan uint8 = 3
	CondVendorEquals         uint8 = 4
	CondCategoryEquals       uint8 = 5
	CondHourGreaterThan      uint8 = 6
)

// Actions a conditional rule can take when its condition holds. Any other
// action code behaves like ActionApprove: the applied bit is set but the
// score is untouched.
const (
	ActionApprove         uint8 = 1
	ActionReject          uint8 = 2
	ActionRequireApproval uint8 = 3
)

// evalCondition interprets one (type, threshold) predicate against the
// intent. Equality conditions compare opaque identity hashes as integers.
func evalCondition(condType uint8, threshold uint64, intent *Intent) bool {
	switch condType {
	case CondAmountGreaterThan:
		return intent.Amount > threshold
	case CondAmountLessThan:
		return intent.Amount < threshold
	case CondAIConfidenceLessThan:
		return intent.AIConfidence < threshold
	case CondVendorEquals:
		return intent.VendorHash == threshold
	case CondCategoryEquals:
		return intent.CategoryHash == threshold
	case CondHourGreaterThan:
		return uint64(HourOfDay(intent.Timestamp)) > threshold
	default:
		return false
	}
}
