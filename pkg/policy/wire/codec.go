package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"clearline-hq/verdict/pkg/policy/bounded"
)

// ErrShortStream indicates the input ended before the expected ordered
// sequence was complete. Decoding cannot produce a partial job.
var ErrShortStream = errors.New("wire: input stream ended early")

// DecodeError reports which field of the ordered sequence could not be read.
type DecodeError struct {
	Field string
	Cause error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decoding %s: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Job is one fully decoded evaluation input.
type Job struct {
	Intent   bounded.Intent
	Rules    bounded.Rules
	Spending bounded.Spending
}

// Decoder reads the ordered value stream.
type Decoder struct {
	r   io.Reader
	buf [8]byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// word reads one 64-bit little-endian value. A short read is fatal.
func (d *Decoder) word(field string) (uint64, error) {
	if _, err := io.ReadFull(d.r, d.buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrShortStream
		}
		return 0, &DecodeError{Field: field, Cause: err}
	}
	return binary.LittleEndian.Uint64(d.buf[:]), nil
}

// ReadJob consumes one complete ordered input sequence. Table entries beyond
// the fixed capacities are consumed and discarded so the stream stays
// aligned; the stored counts are clamped to capacity.
func (d *Decoder) ReadJob() (*Job, error) {
	var (
		job Job
		err error
	)

	// Intent.
	if job.Intent.Amount, err = d.word("intent.amount"); err != nil {
		return nil, err
	}
	if job.Intent.RecipientHash, err = d.word("intent.recipient"); err != nil {
		return nil, err
	}
	if job.Intent.VendorHash, err = d.word("intent.vendor"); err != nil {
		return nil, err
	}
	if job.Intent.CategoryHash, err = d.word("intent.category"); err != nil {
		return nil, err
	}
	if job.Intent.Timestamp, err = d.word("intent.timestamp"); err != nil {
		return nil, err
	}
	if job.Intent.AIConfidence, err = d.word("intent.ai_confidence"); err != nil {
		return nil, err
	}

	// Scalar policy fields.
	if job.Rules.MaxPerPayment, err = d.word("rules.max_per_payment"); err != nil {
		return nil, err
	}
	if job.Rules.MaxPerDay, err = d.word("rules.max_per_day"); err != nil {
		return nil, err
	}
	if job.Rules.MaxPerWeek, err = d.word("rules.max_per_week"); err != nil {
		return nil, err
	}
	v, err := d.word("rules.hours_start")
	if err != nil {
		return nil, err
	}
	job.Rules.AllowedHoursStart = uint8(v)
	if v, err = d.word("rules.hours_end"); err != nil {
		return nil, err
	}
	job.Rules.AllowedHoursEnd = uint8(v)
	if v, err = d.word("rules.weekday_mask"); err != nil {
		return nil, err
	}
	job.Rules.AllowedWeekdayMask = uint8(v)

	// Vendor allow-list.
	count, err := d.word("rules.vendor_count")
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		hash, err := d.word("rules.vendor")
		if err != nil {
			return nil, err
		}
		if i < bounded.MaxVendors {
			job.Rules.AllowedVendorHashes[i] = hash
		}
	}
	job.Rules.AllowedVendorCount = clamp8(count, bounded.MaxVendors)

	// Category cap table.
	if count, err = d.word("rules.category_count"); err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		hash, err := d.word("rules.category")
		if err != nil {
			return nil, err
		}
		maxAmount, err := d.word("rules.category_cap")
		if err != nil {
			return nil, err
		}
		if i < bounded.MaxCategoryRules {
			job.Rules.CategoryHashes[i] = hash
			job.Rules.CategoryMaxAmounts[i] = maxAmount
		}
	}
	job.Rules.CategoryRuleCount = clamp8(count, bounded.MaxCategoryRules)

	// Conditional rule table.
	if count, err = d.word("rules.conditional_count"); err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		condType, err := d.word("rules.condition_type")
		if err != nil {
			return nil, err
		}
		threshold, err := d.word("rules.condition_threshold")
		if err != nil {
			return nil, err
		}
		action, err := d.word("rules.condition_action")
		if err != nil {
			return nil, err
		}
		if i < bounded.MaxConditionalRules {
			job.Rules.ConditionTypes[i] = uint8(condType)
			job.Rules.ConditionThresholds[i] = threshold
			job.Rules.ConditionActions[i] = uint8(action)
		}
	}
	job.Rules.ConditionalRuleCount = clamp8(count, bounded.MaxConditionalRules)

	if job.Rules.MinAIConfidence, err = d.word("rules.min_ai_confidence"); err != nil {
		return nil, err
	}

	// Spending context.
	if job.Spending.Today, err = d.word("spending.today"); err != nil {
		return nil, err
	}
	if job.Spending.Week, err = d.word("spending.week"); err != nil {
		return nil, err
	}

	return &job, nil
}

// ReadResult consumes one committed output sequence. Used by drivers that
// inspect committed values.
func (d *Decoder) ReadResult() (bounded.Evaluation, error) {
	var eval bounded.Evaluation

	approved, err := d.word("result.approved")
	if err != nil {
		return eval, err
	}
	eval.Approved = approved != 0

	risk, err := d.word("result.risk_score")
	if err != nil {
		return eval, err
	}
	eval.RiskScore = uint8(risk)

	violations, err := d.word("result.violation_count")
	if err != nil {
		return eval, err
	}
	eval.ViolationCount = uint8(violations)

	if eval.AppliedRules, err = d.word("result.applied_rules"); err != nil {
		return eval, err
	}
	return eval, nil
}

// Encoder writes the ordered value stream.
type Encoder struct {
	w   io.Writer
	buf [8]byte
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// word writes one 64-bit little-endian value.
func (e *Encoder) word(v uint64) error {
	binary.LittleEndian.PutUint64(e.buf[:], v)
	_, err := e.w.Write(e.buf[:])
	return err
}

// WriteJob emits one complete ordered input sequence. Counts are written
// clamped so the emitted stream is always self-consistent.
func (e *Encoder) WriteJob(job *Job) error {
	vendorCount := clamp8(uint64(job.Rules.AllowedVendorCount), bounded.MaxVendors)
	categoryCount := clamp8(uint64(job.Rules.CategoryRuleCount), bounded.MaxCategoryRules)
	conditionalCount := clamp8(uint64(job.Rules.ConditionalRuleCount), bounded.MaxConditionalRules)

	words := make([]uint64, 0, 32)
	words = append(words,
		job.Intent.Amount,
		job.Intent.RecipientHash,
		job.Intent.VendorHash,
		job.Intent.CategoryHash,
		job.Intent.Timestamp,
		job.Intent.AIConfidence,
		job.Rules.MaxPerPayment,
		job.Rules.MaxPerDay,
		job.Rules.MaxPerWeek,
		uint64(job.Rules.AllowedHoursStart),
		uint64(job.Rules.AllowedHoursEnd),
		uint64(job.Rules.AllowedWeekdayMask),
	)

	words = append(words, uint64(vendorCount))
	for i := 0; i < int(vendorCount); i++ {
		words = append(words, job.Rules.AllowedVendorHashes[i])
	}

	words = append(words, uint64(categoryCount))
	for i := 0; i < int(categoryCount); i++ {
		words = append(words, job.Rules.CategoryHashes[i], job.Rules.CategoryMaxAmounts[i])
	}

	words = append(words, uint64(conditionalCount))
	for i := 0; i < int(conditionalCount); i++ {
		words = append(words,
			uint64(job.Rules.ConditionTypes[i]),
			job.Rules.ConditionThresholds[i],
			uint64(job.Rules.ConditionActions[i]),
		)
	}

	words = append(words, job.Rules.MinAIConfidence, job.Spending.Today, job.Spending.Week)

	for _, w := range words {
		if err := e.word(w); err != nil {
			return fmt.Errorf("wire: writing job: %w", err)
		}
	}
	return nil
}

// WriteResult emits the committed output sequence for one evaluation.
func (e *Encoder) WriteResult(eval bounded.Evaluation) error {
	approved := uint64(0)
	if eval.Approved {
		approved = 1
	}
	for _, w := range []uint64{approved, uint64(eval.RiskScore), uint64(eval.ViolationCount), eval.AppliedRules} {
		if err := e.word(w); err != nil {
			return fmt.Errorf("wire: writing result: %w", err)
		}
	}
	return nil
}

// clamp8 bounds a wire count to a table capacity.
func clamp8(n uint64, capacity int) uint8 {
	if n > uint64(capacity) {
		return uint8(capacity)
	}
	return uint8(n)
}
