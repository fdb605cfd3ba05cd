package flex

import (
	"sort"

	"clearline-hq/verdict/pkg/policy/bounded"
)

// ToBounded folds the dynamic policy into the fixed-capacity representation
// used by the wire protocol and the bounded core. Text identities are folded
// with HashIdentity; the weekday list becomes a 7-bit mask; table entries
// beyond the bounded capacities are dropped, mirroring the clamping the
// bounded core applies. Category limits are emitted in sorted key order so
// the conversion is deterministic.
//
// Blocked keywords have no bounded counterpart and do not survive the
// conversion: substring checks need the text the bounded core does not carry.
func (r *Rules) ToBounded() bounded.Rules {
	out := bounded.Rules{
		MaxPerPayment:     r.MaxPerPayment,
		MaxPerDay:         r.MaxPerDay,
		MaxPerWeek:        r.MaxPerWeek,
		AllowedHoursStart: r.AllowedHoursStart,
		AllowedHoursEnd:   r.AllowedHoursEnd,
		MinAIConfidence:   r.MinAIConfidence,
	}

	for _, day := range r.AllowedWeekdays {
		if day < 7 {
			out.AllowedWeekdayMask |= 1 << day
		}
	}

	for i, vendor := range r.AllowedVendors {
		if i >= bounded.MaxVendors {
			break
		}
		out.AllowedVendorHashes[i] = HashIdentity(vendor)
		out.AllowedVendorCount++
	}

	categories := make([]string, 0, len(r.CategoryLimits))
	for category := range r.CategoryLimits {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for i, category := range categories {
		if i >= bounded.MaxCategoryRules {
			break
		}
		out.CategoryHashes[i] = HashIdentity(category)
		out.CategoryMaxAmounts[i] = r.CategoryLimits[category]
		out.CategoryRuleCount++
	}

	for i, rule := range r.ConditionalRules {
		if i >= bounded.MaxConditionalRules {
			break
		}
		out.ConditionTypes[i] = rule.Type
		out.ConditionThresholds[i] = rule.Threshold
		out.ConditionActions[i] = rule.Action
		out.ConditionalRuleCount++
	}

	return out
}

// ToBoundedIntent folds a text-identity intent into the numeric form.
func (in *Intent) ToBounded() bounded.Intent {
	return bounded.Intent{
		Amount:        in.Amount,
		RecipientHash: HashIdentity(in.Recipient),
		VendorHash:    HashIdentity(in.Vendor),
		CategoryHash:  HashIdentity(in.Category),
		Timestamp:     in.Timestamp,
		AIConfidence:  in.AIConfidence,
	}
}
