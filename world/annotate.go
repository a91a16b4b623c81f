// Copyright © 2025 The typls authors

// Package world runs compilations. It binds a consistent workspace
// snapshot to the engine's World interface and serializes compile tasks
// through a single worker.
package world

import "fmt"

// Annotator receives compile phase boundaries, typically to emit trace
// spans around them.
type Annotator interface {
	// Enable arms the annotator. Start is a no-op before Enable.
	Enable() error
	// Start opens a span for a phase and returns its closer.
	Start(phase, main string) func()
	// Complete closes any span left open.
	Complete() error
}

// annotator is a minimal Annotator.
type annotator struct {
	enabled    bool
	skipPhases map[string]bool
}

var _ Annotator = &annotator{}

type Option func(*annotator)

// WithSkipPhases suppresses spans for the named phases.
func WithSkipPhases(phases ...string) Option {
	return func(a *annotator) {
		if a.skipPhases == nil {
			a.skipPhases = make(map[string]bool)
		}
		for _, p := range phases {
			a.skipPhases[p] = true
		}
	}
}

func (a *annotator) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(a)
	}
}

func (a *annotator) Enable() error {
	if a.enabled {
		return fmt.Errorf("annotator already enabled")
	}
	a.enabled = true
	return nil
}

func (a *annotator) skip(phase string) bool {
	return !a.enabled || a.skipPhases[phase]
}

func (a *annotator) Start(phase, main string) func() {
	return func() {}
}

func (a *annotator) Complete() error { return nil }
