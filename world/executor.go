// Copyright © 2025 The typls authors

package world

import (
	"context"
	"fmt"
	"sync"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
)

// Parse results older than this many compilations are evicted before
// each task.
const memoMaxAge = 30

// queueDepth bounds the pending task queue. Enqueuing blocks when the
// worker falls this far behind.
const queueDepth = 64

// Result is the outcome of one compile task. Err is set only for
// failures outside the document, such as an unresolvable main URI;
// in-document problems arrive as Diagnostics with a nil or partial
// Document.
type Result struct {
	Main        uri.URI
	Document    *typst.Document
	Diagnostics []typst.Diagnostic
	Err         error
}

type task struct {
	ctx   context.Context
	main  uri.URI
	snap  *workspace.Snapshot
	world *ProjectWorld
	err   error
	out   chan Result
}

// Executor serializes compilations through one worker goroutine. Tasks
// run in submission order. A task binds its workspace read snapshot at
// submission, so it compiles the state the caller saw when enqueuing,
// and releases the snapshot when it completes.
type Executor struct {
	ws         *workspace.Workspace
	annotators []Annotator

	tasks     chan task
	done      chan struct{}
	closeOnce sync.Once
}

// NewExecutor starts the worker.
func NewExecutor(ws *workspace.Workspace, annotators ...Annotator) *Executor {
	e := &Executor{
		ws:         ws,
		annotators: annotators,
		tasks:      make(chan task, queueDepth),
		done:       make(chan struct{}),
	}
	go e.run()
	return e
}

// Compile enqueues a compilation of the given main file. The workspace
// snapshot is taken and main is resolved here, before enqueuing, so
// edits arriving between submission and execution are not observed. The
// returned channel receives exactly one Result. Submissions after Close
// panic on the closed channel, so callers stop submitting before
// closing.
func (e *Executor) Compile(ctx context.Context, main uri.URI) <-chan Result {
	t := task{ctx: ctx, main: main, out: make(chan Result, 1)}
	snap := e.ws.Snapshot()
	id, err := snap.FullID(main)
	if err != nil {
		snap.Release()
		t.err = fmt.Errorf("resolve %s: %w", main, err)
	} else {
		t.snap = snap
		t.world = NewProjectWorld(ctx, snap, id)
	}
	e.tasks <- t
	return t.out
}

// CompileWait enqueues and blocks for the result.
func (e *Executor) CompileWait(ctx context.Context, main uri.URI) Result {
	return <-e.Compile(ctx, main)
}

// Close drains the queue and stops the worker. Pending tasks still
// complete and deliver their results.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.tasks) })
	<-e.done
}

func (e *Executor) run() {
	defer close(e.done)
	for t := range e.tasks {
		typst.Evict(memoMaxAge)
		t.out <- e.compileOne(t)
	}
}

func (e *Executor) compileOne(t task) Result {
	if t.err != nil {
		return Result{Main: t.main, Err: t.err}
	}
	defer t.snap.Release()

	for _, a := range e.annotators {
		end := a.Start("compile", string(t.main))
		defer end()
	}
	doc, diags := typst.Compile(t.world)
	return Result{Main: t.main, Document: doc, Diagnostics: diags}
}
