// Package bounded implements the fixed-capacity payment policy decision core.
//
// # Overview
//
// The bounded package evaluates a payment intent against a configurable
// spending policy and produces a compact, auditable decision: an approval
// flag, a saturating risk score, a violation count, and a bitmask recording
// exactly which rule categories fired.
//
// # Determinism
//
// Every evaluation is a straight-line computation that is fully reproducible
// from its inputs. The package uses no wall-clock time, no randomness, no
// floating point, and no heap allocation. All loops are bounded by
// compile-time capacity constants (10 vendors, 5 category rules, 5
// conditional rules), so the total work per evaluation is a fixed function of
// policy shape rather than input size. These properties make the core
// suitable for embedding in execution environments with a hard per-step cost
// budget, such as a verifiable-computation guest.
//
// # Rule categories
//
// Seven independent rule categories are applied in a fixed order: per-payment
// limit, daily limit, weekly limit, vendor allow-list, per-category caps,
// conditional rules, AI confidence, and time/weekday windows. Each category
// that fires increments the violation count once, adds a fixed weight to the
// risk score (saturating, clamped to 100), and sets its bit in the
// applied-rules mask.
//
// Rule violations are data, not errors: Evaluate never fails. Malformed
// scalar inputs (for example an hour window above 23) are accepted as-is and
// degrade toward rejection, never toward silently bypassing a check.
//
// # Tracing
//
// An optional Tracer can observe evaluation steps for debugging. The default
// is a no-op; the evaluation path never logs directly.
package bounded
