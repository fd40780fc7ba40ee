package event

import (
	"errors"
	"fmt"
	"sync"
)

// HeaderSize is the per-event bookkeeping overhead accounted inside each
// pool block. Allocation sizes include it, so a block of size N carries
// at most N-HeaderSize bytes of payload.
const HeaderSize = 8

// Sentinel errors for pool setup.
var (
	// ErrBlockTooSmall indicates the block size cannot hold an event header.
	ErrBlockTooSmall = errors.New("block size smaller than event header")

	// ErrStorageTooSmall indicates the storage cannot hold a single block.
	ErrStorageTooSmall = errors.New("storage too small for one block")

	// ErrPoolOrder indicates pools were registered out of block-size order.
	ErrPoolOrder = errors.New("pools must be registered in non-decreasing block size")
)

// Pool is a fixed block-size event allocator over caller-supplied storage.
// Allocate and free are O(1) free-list operations; the pool never grows
// and never blocks. Exhaustion is a sizing error, not a runtime condition:
// the non-Try allocation path treats it as fatal.
type Pool struct {
	mu        sync.Mutex
	blockSize int
	storage   []byte
	events    []Event // one header per block
	next      []int32 // free-list links, indexed by block
	freeHead  int32   // -1 when exhausted
	freeCount int
	minFree   int // lowest observed free count
}

// NewPool partitions storage into storageLen/blockSize blocks and threads
// them into a free list. The storage must outlive the pool.
func NewPool(storage []byte, blockSize int) (*Pool, error) {
	if blockSize < HeaderSize {
		return nil, fmt.Errorf("pool init: %w (need %d, got %d)", ErrBlockTooSmall, HeaderSize, blockSize)
	}
	n := len(storage) / blockSize
	if n < 1 {
		return nil, fmt.Errorf("pool init: %w (%d bytes, block size %d)", ErrStorageTooSmall, len(storage), blockSize)
	}

	p := &Pool{
		blockSize: blockSize,
		storage:   storage,
		events:    make([]Event, n),
		next:      make([]int32, n),
		freeHead:  0,
		freeCount: n,
		minFree:   n,
	}
	for i := 0; i < n-1; i++ {
		p.next[i] = int32(i + 1)
	}
	p.next[n-1] = -1
	return p, nil
}

// Allocate returns a dynamic event of the given total size (header
// included) tagged with sig. It panics when the pool is exhausted or the
// size exceeds the block size; both indicate undersizing, which by
// convention is not recoverable at runtime.
func (p *Pool) Allocate(sig Signal, size int) *Event {
	e, ok := p.TryAllocate(sig, size)
	if !ok {
		panic(fmt.Sprintf("reakt/event: pool exhausted (block size %d, %d blocks)", p.blockSize, len(p.events)))
	}
	return e
}

// TryAllocate is the best-effort variant of Allocate. It reports false on
// exhaustion instead of panicking, for call sites with their own
// backpressure policy.
func (p *Pool) TryAllocate(sig Signal, size int) (*Event, bool) {
	if size > p.blockSize {
		panic(fmt.Sprintf("reakt/event: allocation of %d bytes exceeds block size %d", size, p.blockSize))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freeHead < 0 {
		return nil, false
	}
	blk := int(p.freeHead)
	p.freeHead = p.next[blk]
	p.freeCount--
	if p.freeCount < p.minFree {
		p.minFree = p.freeCount
	}

	payload := size - HeaderSize
	if payload < 0 {
		payload = 0
	}
	off := blk * p.blockSize

	e := &p.events[blk]
	e.Sig = sig
	e.pool = p
	e.block = blk
	e.refCnt = 0
	e.data = p.storage[off+HeaderSize : off+HeaderSize+payload]
	return e, true
}

// freeLocked pushes a block back on the free list. Caller holds p.mu.
// Double-free protection is the refcount discipline of the Event layer;
// the pool itself does not detect it.
func (p *Pool) freeLocked(blk int) {
	p.events[blk].Sig = EmptySig
	p.events[blk].data = nil
	p.next[blk] = p.freeHead
	p.freeHead = int32(blk)
	p.freeCount++
}

// BlockSize returns the fixed block size of the pool.
func (p *Pool) BlockSize() int { return p.blockSize }

// Cap returns the total number of blocks.
func (p *Pool) Cap() int { return len(p.events) }

// FreeCount returns the current number of free blocks.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeCount
}

// MinFree returns the lowest free-block count ever observed, the usual
// sizing diagnostic for event pools.
func (p *Pool) MinFree() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minFree
}

// PoolSet routes allocation requests across multiple pools of increasing
// block size: a request goes to the smallest pool whose block size
// accommodates it, bounding internal fragmentation.
type PoolSet struct {
	mu    sync.RWMutex
	pools []*Pool
}

// Register adds a pool to the set. Pools must be registered in
// non-decreasing block-size order, before allocation begins.
func (s *PoolSet) Register(p *Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.pools); n > 0 && p.blockSize < s.pools[n-1].blockSize {
		return fmt.Errorf("pool registry: %w", ErrPoolOrder)
	}
	s.pools = append(s.pools, p)
	return nil
}

// New allocates an event of the given total size from the smallest
// suitable pool. Panics when no registered pool can hold the size or the
// selected pool is exhausted.
func (s *PoolSet) New(sig Signal, size int) *Event {
	e, ok := s.TryNew(sig, size)
	if !ok {
		panic(fmt.Sprintf("reakt/event: no block available for %d-byte event", size))
	}
	return e
}

// TryNew is the best-effort variant of New.
func (s *PoolSet) TryNew(sig Signal, size int) (*Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pools {
		if size <= p.blockSize {
			return p.TryAllocate(sig, size)
		}
	}
	return nil, false
}

// Pools returns the registered pools in block-size order.
func (s *PoolSet) Pools() []*Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Pool, len(s.pools))
	copy(out, s.pools)
	return out
}
