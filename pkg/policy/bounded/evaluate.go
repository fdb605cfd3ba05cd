package bounded

// Evaluator applies a policy to payment intents. The zero value is not
// usable; construct with NewEvaluator.
type Evaluator struct {
	tracer Tracer
}

// NewEvaluator creates an Evaluator. A nil tracer means no tracing.
func NewEvaluator(tracer Tracer) *Evaluator {
	if tracer == nil {
		tracer = NopTracer{}
	}
	return &Evaluator{tracer: tracer}
}

// Evaluate applies rules to intent with the given spending totals using no
// tracer. See Evaluator.Evaluate.
func Evaluate(intent *Intent, rules *Rules, spending Spending) Evaluation {
	return NewEvaluator(nil).Evaluate(intent, rules, spending)
}

// Evaluate applies each rule category in fixed order and accumulates the
// decision. It never fails: violations are counted and scored, not returned
// as errors. The result depends only on the three inputs.
func (e *Evaluator) Evaluate(intent *Intent, rules *Rules, spending Spending) Evaluation {
	var (
		violations uint8
		risk       uint8
		applied    uint64
	)

	// 1. Scalar spending limits.
	perPayment := intent.Amount > rules.MaxPerPayment
	if perPayment {
		violations++
		risk = saturatingAdd(risk, weightPerPayment)
		applied |= maskPerPayment
	}
	e.tracer.Step("per_payment_limit", perPayment)

	daily := spending.Today+intent.Amount > rules.MaxPerDay
	if daily {
		violations++
		risk = saturatingAdd(risk, weightDaily)
		applied |= maskDaily
	}
	e.tracer.Step("daily_limit", daily)

	weekly := spending.Week+intent.Amount > rules.MaxPerWeek
	if weekly {
		violations++
		risk = saturatingAdd(risk, weightWeekly)
		applied |= maskWeekly
	}
	e.tracer.Step("weekly_limit", weekly)

	// 2. Vendor allow-list. Absence is decided only after the scan; an
	// empty list places no restriction.
	vendorAllowed := false
	for i := 0; i < clampCount(rules.AllowedVendorCount, MaxVendors); i++ {
		if rules.AllowedVendorHashes[i] == intent.VendorHash {
			vendorAllowed = true
			break
		}
	}
	vendorFired := !vendorAllowed && rules.AllowedVendorCount > 0
	if vendorFired {
		violations++
		risk = saturatingAdd(risk, weightVendor)
		applied |= maskVendor
	}
	e.tracer.Step("vendor_allow_list", vendorFired)

	// 3. Per-category caps. First matching row wins; later rows for the
	// same category are unreachable.
	categoryFired := false
	for i := 0; i < clampCount(rules.CategoryRuleCount, MaxCategoryRules); i++ {
		if rules.CategoryHashes[i] == intent.CategoryHash {
			if intent.Amount > rules.CategoryMaxAmounts[i] {
				violations++
				risk = saturatingAdd(risk, weightCategory)
				applied |= maskCategory0 << i
				categoryFired = true
			}
			break
		}
	}
	e.tracer.Step("category_cap", categoryFired)

	// 4. Conditional rules, each row independent, no short-circuiting.
	for i := 0; i < clampCount(rules.ConditionalRuleCount, MaxConditionalRules); i++ {
		met := evalCondition(rules.ConditionTypes[i], rules.ConditionThresholds[i], intent)
		e.tracer.Step("conditional_rule", met)
		if !met {
			continue
		}

		// The applied bit is set whenever the condition holds, even for
		// actions with no scoring effect.
		applied |= maskCondition0 << i

		switch rules.ConditionActions[i] {
		case ActionReject:
			violations++
			risk = saturatingAdd(risk, weightReject)
		case ActionRequireApproval:
			violations++
			risk = saturatingAdd(risk, weightRequireApproval)
		}
	}

	// 5. AI confidence floor.
	confidence := intent.AIConfidence < rules.MinAIConfidence
	if confidence {
		violations++
		risk = saturatingAdd(risk, weightConfidence)
		applied |= maskConfidence
	}
	e.tracer.Step("ai_confidence", confidence)

	// 6. Time-of-day window, half-open [start, end).
	hour := HourOfDay(intent.Timestamp)
	outsideHours := hour < rules.AllowedHoursStart || hour >= rules.AllowedHoursEnd
	if outsideHours {
		violations++
		risk = saturatingAdd(risk, weightHours)
		applied |= maskHours
	}
	e.tracer.Step("hour_window", outsideHours)

	// 7. Weekday window.
	badWeekday := rules.AllowedWeekdayMask&(1<<Weekday(intent.Timestamp)) == 0
	if badWeekday {
		violations++
		risk = saturatingAdd(risk, weightWeekday)
		applied |= maskWeekday
	}
	e.tracer.Step("weekday_window", badWeekday)

	if risk > 100 {
		risk = 100
	}

	return Evaluation{
		Approved:       violations == 0,
		RiskScore:      risk,
		ViolationCount: violations,
		AppliedRules:   applied,
	}
}

// saturatingAdd adds b to a, sticking at the top of the uint8 range instead
// of wrapping.
func saturatingAdd(a, b uint8) uint8 {
	if sum := uint16(a) + uint16(b); sum <= 0xff {
		return uint8(sum)
	}
	return 0xff
}
