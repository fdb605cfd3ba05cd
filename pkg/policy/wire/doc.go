// Package wire implements the positional value-stream protocol that drives
// the bounded decision core.
//
// # Protocol
//
// The stream carries no tags: position encodes meaning, so both sides must
// preserve field order exactly. Every value is one fixed-width 64-bit
// little-endian word, including fields that are logically 8-bit.
//
// Read order: the intent (amount, recipient, vendor, category, timestamp,
// AI confidence), the scalar policy fields (limits, hour window, weekday
// mask), the three counted tables (vendor allow-list, category caps,
// conditional rules), the minimum AI confidence, and finally the daily and
// weekly spending totals. Table counts above capacity are still consumed in
// full so the stream stays aligned; evaluation only ever sees the
// capacity-clamped prefix.
//
// Commit order: approved (0/1), risk score, violation count, applied-rules
// bitmask.
//
// # Failure model
//
// Rule violations are never wire errors. The only failure mode is
// structural: a stream shorter than the expected sequence aborts decoding
// with ErrShortStream and no partial job is returned.
package wire
