// Copyright © 2025 The typls authors

package world

import (
	"context"
	"errors"

	"go.opencensus.io/trace"
)

var _ Annotator = &ocAnnotator{}

type ocAnnotator struct {
	annotator
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       []context.Context
}

func NewOpenCensusAnnotator(parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		currentContext: parentContext,
	}
	p.annotator.applyConfigs(opts...)
	return p
}

func (p *ocAnnotator) Enable() error {
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.annotator.Enable()
}

func (p *ocAnnotator) Complete() error {
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	return nil
}

func (p *ocAnnotator) Start(phase, main string) func() {
	if p.skip(phase) {
		return func() {}
	}
	p.contexts = append(p.contexts, p.currentContext)
	p.currentContext, p.currentSpan = trace.StartSpan(p.currentContext, phase)
	p.currentSpan.AddAttributes(trace.StringAttribute("typst.main", main))
	return func() {
		p.currentSpan.End()
		// And pop the current context back
		p.currentContext = p.contexts[len(p.contexts)-1]
		p.contexts = p.contexts[:len(p.contexts)-1]
		p.currentSpan = trace.FromContext(p.currentContext)
	}
}
