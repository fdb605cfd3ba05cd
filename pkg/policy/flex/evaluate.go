package flex

import (
	"fmt"
	"strings"

	"clearline-hq/verdict/pkg/policy/bounded"
)

// Rule weights. Shared categories carry the same weights as the bounded
// variant; the category check is a generic custom-limit lookup here and the
// keyword blocklist has no bounded counterpart.
const (
	weightPerPayment      = 30
	weightDaily           = 25
	weightWeekly          = 20
	weightVendor          = 25
	weightCategoryLimit   = 15
	weightKeyword         = 20
	weightReject          = 50
	weightRequireApproval = 15
	weightConfidence      = 10
	weightHours           = 15
	weightWeekday         = 10
)

// Evaluate applies rules to intent with the given spending totals and
// assembles the full decision, including violation messages and the policy
// fingerprint. It never fails; violations are data, not errors.
func Evaluate(intent *Intent, rules *Rules, spending Spending) *Evaluation {
	var (
		risk       uint16
		violations []string
	)

	violate := func(weight uint16, format string, args ...any) {
		risk += weight
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	// 1. Scalar spending limits.
	if intent.Amount > rules.MaxPerPayment {
		violate(weightPerPayment, "amount %d exceeds per-payment limit %d", intent.Amount, rules.MaxPerPayment)
	}
	if spending.Today+intent.Amount > rules.MaxPerDay {
		violate(weightDaily, "daily spending %d would exceed limit %d", spending.Today+intent.Amount, rules.MaxPerDay)
	}
	if spending.Week+intent.Amount > rules.MaxPerWeek {
		violate(weightWeekly, "weekly spending %d would exceed limit %d", spending.Week+intent.Amount, rules.MaxPerWeek)
	}

	// 2. Vendor allow-list: full scan, absence decided afterwards. An
	// empty list places no restriction.
	if len(rules.AllowedVendors) > 0 {
		allowed := false
		for _, v := range rules.AllowedVendors {
			if v == intent.Vendor {
				allowed = true
			}
		}
		if !allowed {
			violate(weightVendor, "vendor %q is not on the allow-list", intent.Vendor)
		}
	}

	// 3. Per-category custom limit.
	if limit, ok := rules.CategoryLimits[intent.Category]; ok && intent.Amount > limit {
		violate(weightCategoryLimit, "amount %d exceeds category %q limit %d", intent.Amount, intent.Category, limit)
	}

	// 4. Keyword blocklist: every match is an independent violation.
	vendorLower := strings.ToLower(intent.Vendor)
	categoryLower := strings.ToLower(intent.Category)
	for _, kw := range rules.BlockedKeywords {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		if strings.Contains(vendorLower, kwLower) {
			violate(weightKeyword, "vendor %q matches blocked keyword %q", intent.Vendor, kw)
		}
		if strings.Contains(categoryLower, kwLower) {
			violate(weightKeyword, "category %q matches blocked keyword %q", intent.Category, kw)
		}
	}

	// 5. Conditional rules, each row independent.
	for i, rule := range rules.ConditionalRules {
		if !evalCondition(rule, intent) {
			continue
		}
		switch rule.Action {
		case bounded.ActionReject:
			violate(weightReject, "conditional rule %d: rejected", i)
		case bounded.ActionRequireApproval:
			violate(weightRequireApproval, "conditional rule %d: requires manual approval", i)
		}
	}

	// 6. AI confidence floor.
	if intent.AIConfidence < rules.MinAIConfidence {
		violate(weightConfidence, "AI confidence %d below minimum %d", intent.AIConfidence, rules.MinAIConfidence)
	}

	// 7. Time-of-day window, half-open [start, end).
	hour := bounded.HourOfDay(intent.Timestamp)
	if hour < rules.AllowedHoursStart || hour >= rules.AllowedHoursEnd {
		violate(weightHours, "hour %d outside allowed window [%d, %d)", hour, rules.AllowedHoursStart, rules.AllowedHoursEnd)
	}

	// 8. Weekday window.
	weekday := bounded.Weekday(intent.Timestamp)
	weekdayAllowed := false
	for _, d := range rules.AllowedWeekdays {
		if d == weekday {
			weekdayAllowed = true
		}
	}
	if !weekdayAllowed {
		violate(weightWeekday, "weekday %d is not allowed", weekday)
	}

	if risk > 100 {
		risk = 100
	}

	eval := &Evaluation{
		Approved:          len(violations) == 0,
		RiskScore:         uint8(risk),
		ViolationCount:    uint8(len(violations)),
		Violations:        violations,
		PolicyFingerprint: Fingerprint(rules),
	}
	if eval.Approved {
		eval.Reason = "all policy checks passed"
	} else {
		eval.Reason = strings.Join(violations, "; ")
	}
	return eval
}

// evalCondition interprets one conditional rule row against the intent. Text
// identities are folded with HashIdentity for the equality conditions.
// Unknown condition types are inert.
func evalCondition(rule ConditionalRule, intent *Intent) bool {
	switch rule.Type {
	case bounded.CondAmountGreaterThan:
		return intent.Amount > rule.Threshold
	case bounded.CondAmountLessThan:
		return intent.Amount < rule.Threshold
	case bounded.CondAIConfidenceLessThan:
		return intent.AIConfidence < rule.Threshold
	case bounded.CondVendorEquals:
		return HashIdentity(intent.Vendor) == rule.Threshold
	case bounded.CondCategoryEquals:
		return HashIdentity(intent.Category) == rule.Threshold
	case bounded.CondHourGreaterThan:
		return uint64(bounded.HourOfDay(intent.Timestamp)) > rule.Threshold
	default:
		return false
	}
}
