package source

import (
	"context"
	"errors"
	"fmt"

	"clearline-hq/verdict/pkg/policy/flex"
)

// ErrNoPolicies indicates a source produced no policy documents.
var ErrNoPolicies = errors.New("source: no policies loaded")

// Policy is one named, versioned rule set.
type Policy struct {
	// Name identifies the policy; evaluation requests select by name.
	Name string `yaml:"name"`

	// Version is an opaque caller-chosen revision marker.
	Version string `yaml:"version"`

	Rules flex.Rules `yaml:"rules"`

	// SourceFile is the file the policy was loaded from, when applicable.
	SourceFile string `yaml:"-"`
}

// Validate checks the structural invariants a document must satisfy before
// it can serve evaluations. Rule values themselves are never validated:
// out-of-range scalars are legal inputs that degrade toward rejection.
func (p *Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	return nil
}

// Source provides policy documents to the manager.
type Source interface {
	// Load loads all policies from the source.
	Load(ctx context.Context) ([]*Policy, error)
}
