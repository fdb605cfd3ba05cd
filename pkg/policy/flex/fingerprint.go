package flex

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes a deterministic digest over every policy field and
// widens it into a 32-byte field. Only the low 8 bytes carry entropy; the
// remaining 24 are zero. Two identical policies always produce the same
// fingerprint and changing any field changes it, modulo the collision
// probability of a 64-bit non-cryptographic hash. The fingerprint binds a
// decision to the policy that produced it for audit purposes; it is not a
// tamper-evident commitment.
func Fingerprint(rules *Rules) [32]byte {
	d := xxhash.New()

	writeUint64(d, rules.MaxPerPayment)
	writeUint64(d, rules.MaxPerDay)
	writeUint64(d, rules.MaxPerWeek)
	writeUint64(d, uint64(rules.AllowedHoursStart))
	writeUint64(d, uint64(rules.AllowedHoursEnd))

	writeUint64(d, uint64(len(rules.AllowedWeekdays)))
	for _, day := range rules.AllowedWeekdays {
		writeUint64(d, uint64(day))
	}

	writeUint64(d, uint64(len(rules.AllowedVendors)))
	for _, vendor := range rules.AllowedVendors {
		writeString(d, vendor)
	}

	// Map iteration order is not deterministic; hash entries sorted by key.
	writeUint64(d, uint64(len(rules.CategoryLimits)))
	categories := make([]string, 0, len(rules.CategoryLimits))
	for category := range rules.CategoryLimits {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		writeString(d, category)
		writeUint64(d, rules.CategoryLimits[category])
	}

	writeUint64(d, uint64(len(rules.BlockedKeywords)))
	for _, kw := range rules.BlockedKeywords {
		writeString(d, kw)
	}

	writeUint64(d, uint64(len(rules.ConditionalRules)))
	for _, rule := range rules.ConditionalRules {
		writeUint64(d, uint64(rule.Type))
		writeUint64(d, rule.Threshold)
		writeUint64(d, uint64(rule.Action))
	}

	writeUint64(d, rules.MinAIConfidence)

	var fp [32]byte
	binary.BigEndian.PutUint64(fp[24:], d.Sum64())
	return fp
}

// writeUint64 feeds one fixed-width value to the digest.
func writeUint64(d *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = d.Write(buf[:])
}

// writeString feeds a length-prefixed string to the digest. The prefix keeps
// adjacent list entries from sliding into each other.
func writeString(d *xxhash.Digest, s string) {
	writeUint64(d, uint64(len(s)))
	_, _ = d.WriteString(s)
}
