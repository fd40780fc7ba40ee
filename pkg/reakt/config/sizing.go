package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for sizing validation.
var (
	// ErrQueueDepth indicates a non-positive queue depth.
	ErrQueueDepth = errors.New("queue depth must be positive")

	// ErrPoolGeometry indicates a pool with non-positive blocks or block size.
	ErrPoolGeometry = errors.New("pool blocks and block size must be positive")
)

// PoolSpec sizes one event pool.
type PoolSpec struct {
	// Blocks is the number of fixed-size blocks.
	Blocks int
	// BlockSize is the size of each block in bytes, event header included.
	BlockSize int
}

// Sizing is the validated runtime geometry read from a config file.
type Sizing struct {
	// QueueDepth is the default actor queue capacity.
	QueueDepth int
	// DeferDepth is the default deferred-queue capacity; 0 disables it.
	DeferDepth int
	// Pools lists event pools in non-decreasing block-size order.
	Pools []PoolSpec
	// TracePath is the SQLite trace database path; empty disables the sink.
	TracePath string
}

// DefaultSizing returns a geometry suitable for small examples and tests.
func DefaultSizing() Sizing {
	return Sizing{
		QueueDepth: 8,
		Pools:      []PoolSpec{{Blocks: 16, BlockSize: 32}},
	}
}

// SizingFrom extracts and validates runtime sizing from a Config.
// Expected shape:
//
//	queue_depth: 8
//	defer_depth: 4
//	pools:
//	  - {blocks: 16, block_size: 32}
//	  - {blocks: 8, block_size: 64}
//	trace:
//	  sqlite_path: ./trace.db
func SizingFrom(c Config) (Sizing, error) {
	def := DefaultSizing()
	s := Sizing{
		QueueDepth: c.Int("queue_depth", def.QueueDepth),
		DeferDepth: c.Int("defer_depth", 0),
		TracePath:  c.Section("trace").String("sqlite_path", ""),
	}
	if s.QueueDepth < 1 {
		return Sizing{}, fmt.Errorf("sizing: %w (got %d)", ErrQueueDepth, s.QueueDepth)
	}

	raw, ok := c.Raw()["pools"]
	if !ok {
		s.Pools = def.Pools
		return s, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return Sizing{}, fmt.Errorf("sizing: pools must be a list")
	}
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return Sizing{}, fmt.Errorf("sizing: pool %d must be a mapping", i)
		}
		pc := New(m)
		spec := PoolSpec{
			Blocks:    pc.Int("blocks", 0),
			BlockSize: pc.Int("block_size", 0),
		}
		if spec.Blocks < 1 || spec.BlockSize < 1 {
			return Sizing{}, fmt.Errorf("sizing: pool %d: %w", i, ErrPoolGeometry)
		}
		s.Pools = append(s.Pools, spec)
	}
	return s, nil
}
