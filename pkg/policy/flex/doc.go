// Package flex implements the dynamic-collection variant of the payment
// policy decision core.
//
// # Overview
//
// flex evaluates the same rule categories as package bounded, with the same
// ordering and weights, but represents identities as text and policy tables
// as growable lists and maps. In exchange for unbounded policy shape it
// reports structured, human-readable results: a reason string, one violation
// message per rule that fired, and a 32-byte policy fingerprint binding the
// decision to the exact configuration evaluated.
//
// Because it allocates, flex is unsuitable for execution contexts with a hard
// per-step cost budget; use package bounded there. Evaluation is still fully
// deterministic: no wall-clock time, no randomness, no floating point.
//
// # Identities
//
// Text identities are folded to numeric form with HashIdentity (xxhash64)
// wherever a rule compares identities as integers, such as conditional rule
// thresholds and conversion to the bounded representation.
//
// # Fingerprint
//
// The fingerprint is a general-purpose xxhash64 digest over the policy's
// ordered fields, carried in the low 8 bytes of a 32-byte field. It is
// deterministic and useful for audit and debugging, but it is not
// collision-resistant and must not serve as a cryptographic trust anchor.
package flex
