package benchmarks

import (
	"testing"

	"github.com/ourran/reakt/pkg/reakt"
	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/hsm"
)

const (
	stIdle hsm.StateID = 1 + iota
	stBusy
	stDeep
)

const (
	sigGo = event.UserSig + iota
	sigStay
)

// flipper bounces between two sibling states; sigStay is an internal
// transition, sigGo a full exit/enter pair.
type flipper struct{}

func (f *flipper) idle(e *event.Event) hsm.Outcome {
	switch e.Sig {
	case sigGo:
		return hsm.TransitionTo(stBusy)
	case sigStay:
		return hsm.Handled()
	}
	return hsm.Ignored()
}

func (f *flipper) busy(e *event.Event) hsm.Outcome {
	if e.Sig == sigGo {
		return hsm.TransitionTo(stIdle)
	}
	return hsm.Ignored()
}

func (f *flipper) deep(e *event.Event) hsm.Outcome {
	return hsm.Ignored()
}

func flipperTopology(b *testing.B) *hsm.Topology[*flipper] {
	b.Helper()
	topo, err := hsm.NewTopology[*flipper]().
		State(stIdle, "idle", hsm.Top, (*flipper).idle).
		State(stBusy, "busy", hsm.Top, (*flipper).busy).
		Initial(stIdle).
		Compile()
	if err != nil {
		b.Fatal(err)
	}
	return topo
}

// BenchmarkDispatchInternal measures a dispatch handled without any
// state change.
func BenchmarkDispatchInternal(b *testing.B) {
	m := hsm.New(flipperTopology(b), &flipper{})
	m.Init(nil)
	e := event.Static(sigStay)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Dispatch(e)
	}
}

// BenchmarkDispatchTransition measures a dispatch causing an exit/enter
// pair between sibling states.
func BenchmarkDispatchTransition(b *testing.B) {
	m := hsm.New(flipperTopology(b), &flipper{})
	m.Init(nil)
	e := event.Static(sigGo)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Dispatch(e)
	}
}

// BenchmarkDispatchBubbling measures a dispatch whose handler lives
// three levels above the current leaf.
func BenchmarkDispatchBubbling(b *testing.B) {
	type nested struct{ flipper }
	topo, err := hsm.NewTopology[*nested]().
		State(stIdle, "root", hsm.Top, func(o *nested, e *event.Event) hsm.Outcome {
			if e.Sig == sigStay {
				return hsm.Handled()
			}
			return hsm.Ignored()
		}).
		State(stBusy, "mid", stIdle, func(o *nested, e *event.Event) hsm.Outcome {
			return hsm.Ignored()
		}).
		State(stDeep, "leaf", stBusy, func(o *nested, e *event.Event) hsm.Outcome {
			return hsm.Ignored()
		}).
		Initial(stDeep).
		Compile()
	if err != nil {
		b.Fatal(err)
	}
	m := hsm.New(topo, &nested{})
	m.Init(nil)
	e := event.Static(sigStay)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Dispatch(e)
	}
}

// BenchmarkKernelStep measures one post-and-drain round through the
// scheduler, queue included.
func BenchmarkKernelStep(b *testing.B) {
	k := reakt.New()
	m := hsm.New(flipperTopology(b), &flipper{})
	a := reakt.NewActive("bench", m)
	if err := a.Start(k, 1, make([]*event.Event, 8), nil); err != nil {
		b.Fatal(err)
	}
	e := event.Static(sigStay)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Post(e)
		k.Drain()
	}
}
