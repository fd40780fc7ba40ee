/*
Package reakt provides an event-driven runtime for actor-style software.

# Overview

reakt is a Go library for building systems out of active objects:
independent actors, each owning a private bounded event queue and a
hierarchical state machine, that react to posted events under a strict
run-to-completion discipline. A kernel schedules the actors by unique
priority — the highest-priority actor with pending events always runs
next, and one event is always fully processed before the next is taken.

The design follows the classic reactive-embedded school:
  - events are reference-counted and backed by fixed-block pools over
    caller-supplied storage, so steady-state operation allocates nothing
  - queues are bounded rings with an urgent front-insert path
  - state machines nest, unhandled events bubble to ancestor states, and
    transitions resolve entry/exit order through the least common
    ancestor of the source and target

# Basic Usage

Define state IDs and a topology, wrap it in an active object, and start
it on a kernel:

	const (
	    SigTick = event.UserSig + iota
	)

	const (
	    StOff hsm.StateID = 1 + iota
	    StOn
	)

	type Blinky struct{ ticks int }

	func (b *Blinky) off(e *event.Event) hsm.Outcome {
	    if e.Sig == SigTick {
	        return hsm.TransitionTo(StOn)
	    }
	    return hsm.Ignored()
	}

Method expressions satisfy the handler contract directly:

	topo, _ := hsm.NewTopology[*Blinky]().
	    State(StOff, "off", hsm.Top, (*Blinky).off).
	    State(StOn, "on", hsm.Top, (*Blinky).on).
	    Initial(StOff).
	    Compile()

	b := &Blinky{}
	ao := reakt.NewActive("blinky", hsm.New(topo, b))

	k := reakt.New()
	storage := make([]*event.Event, 8)
	ao.Start(k, 1, storage, nil)

	ao.Post(event.Static(SigTick))
	k.Drain() // or k.Run(ctx) on a goroutine

# Publish-Subscribe

Actors subscribe to signals; Publish fans one event out to every
subscriber's queue in priority order, atomically with respect to
scheduling:

	ao.Subscribe(SigAlarm)
	k.Publish(k.NewEvent(SigAlarm, 16))

# Event Pools

Dynamic events come from registered fixed-block pools, smallest
suitable block first:

	small := make([]byte, 16*8)
	k.RegisterPool(small, 16)
	e := k.NewEvent(SigData, 12)

Pool exhaustion and queue overflow are treated as sizing errors and are
fatal on the default paths; Try variants report failure instead for
producers with their own backpressure policy.

# Observability

Structured logging via slog, metrics and dispatch spans via
OpenTelemetry, and an instrumentation sink that records every state
entry, exit, initial transition, and transition taken:

	sink, _ := trace.NewSQLiteSink("./trace.db")
	k := reakt.New(
	    reakt.WithLogger(slog.Default()),
	    reakt.WithMetrics(observability.NewMetricsRecorder()),
	    reakt.WithTraceSink(sink),
	)

# Concurrency Model

One kernel goroutine runs dispatch steps; producers on any goroutine
post and publish freely. All shared structures are guarded by short
critical sections that are never held across a dispatch step. Handlers
must be non-blocking: a dispatch step has no yield point, which is the
run-to-completion contract.
*/
package reakt
