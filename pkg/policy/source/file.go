package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSource loads policy documents from YAML files on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based policy source. The path can be either a
// single file or a directory; for a directory, all .yaml and .yml files are
// loaded.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Load loads all policies from the configured path.
func (s *FileSource) Load(ctx context.Context) ([]*Policy, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var policies []*Policy

	if info.IsDir() {
		policies, err = s.loadDirectory(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		policy, err := s.loadFile(s.path)
		if err != nil {
			return nil, err
		}
		policies = []*Policy{policy}
	}

	if len(policies) == 0 {
		return nil, fmt.Errorf("%w from %q", ErrNoPolicies, s.path)
	}

	s.logger.Info("loaded policies from source",
		"path", s.path,
		"policy_count", len(policies),
	)

	return policies, nil
}

// loadDirectory loads all policy files from a directory.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*Policy, error) {
	var policies []*Policy

	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		policy, err := s.loadFile(path)
		if err != nil {
			s.logger.Warn("failed to load policy file, skipping",
				"path", path,
				"error", err,
			)
			return nil // skip invalid files
		}

		policies = append(policies, policy)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.path, err)
	}

	return policies, nil
}

// loadFile loads and validates a single policy document.
func (s *FileSource) loadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}

	policy, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy file %q: %w", path, err)
	}
	policy.SourceFile = path

	s.logger.Debug("loaded policy file",
		"path", path,
		"policy_name", policy.Name,
		"version", policy.Version,
	)

	return policy, nil
}

// Parse decodes one policy document. Unknown fields are rejected so a typo
// in a limit name cannot silently weaken a policy.
func Parse(data []byte) (*Policy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var policy Policy
	if err := dec.Decode(&policy); err != nil {
		return nil, fmt.Errorf("invalid policy document: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// MemorySource serves a fixed policy set. It is intended for tests and
// embedded deployments with a compiled-in policy.
type MemorySource struct {
	policies []*Policy
}

// NewMemorySource creates a source over a fixed policy set.
func NewMemorySource(policies ...*Policy) *MemorySource {
	return &MemorySource{policies: policies}
}

// Load returns the fixed policy set.
func (s *MemorySource) Load(ctx context.Context) ([]*Policy, error) {
	if len(s.policies) == 0 {
		return nil, ErrNoPolicies
	}
	return s.policies, nil
}
