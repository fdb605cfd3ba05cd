package bounded

// Tracer observes evaluation steps. Implementations must not mutate the
// evaluation and should be cheap; the tracer runs inline on the hot path.
type Tracer interface {
	// Step is called after each rule category with the category name and
	// whether it fired.
	Step(name string, fired bool)
}

// NopTracer is a Tracer that discards every step. It is the default.
type NopTracer struct{}

// Step implements Tracer.
func (NopTracer) Step(string, bool) {}
