package flake

import (
	"fmt"
	"sync"

	"github.com/rexliu/flake/pkg/node"
)

// MaxSequence is the last sequence value available within one millisecond.
const MaxSequence = 0xFFFF

// noSequence marks a generator that has not issued an id for lastMs yet.
const noSequence = -1

// Logger is the subset of logging.Logger used here; kept minimal to avoid
// dependency cycles.
type Logger interface {
	Debugf(format string, args ...any)
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithLogger reports sequence overflows.
func WithLogger(logger Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator issues ids for one node. It is safe for concurrent use.
//
// The clock is not checked for regressions; if it moves backwards the
// generator keeps issuing ids at the earlier timestamps.
type Generator struct {
	node   [node.Size]byte
	nodeID node.ID
	clock  Clock
	logger Logger

	mu     sync.Mutex
	lastMs int64
	seq    int32
}

// New creates a Generator for nodeID. The node id is truncated to 48 bits.
func New(nodeID node.ID, opts ...Option) *Generator {
	nodeID &= node.Max
	g := &Generator{
		node:   nodeID.Bytes(),
		nodeID: nodeID,
		clock:  SystemClock,
		seq:    noSequence,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lastMs = g.clock.NowMs()
	return g
}

// NewFromSource resolves src and creates a Generator for the result. No
// generator is returned if resolution fails.
func NewFromSource(src node.Source, opts ...Option) (*Generator, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	nodeID, err := src.Resolve()
	if err != nil {
		return nil, fmt.Errorf("flake: resolve node id: %w", err)
	}
	return New(nodeID, opts...), nil
}

// NodeID returns the node id embedded in every id from g.
func (g *Generator) NodeID() node.ID {
	return g.nodeID
}

// Next returns a new id. It fails with ErrSequenceOverflow once 65536 ids
// have been issued in the current millisecond; it never waits for the clock.
func (g *Generator) Next() (ID, error) {
	ms, seq, ok := g.advance()
	if !ok {
		if g.logger != nil {
			g.logger.Debugf("sequence exhausted at %d", ms)
		}
		return ID{}, fmt.Errorf("%w at timestamp %d", ErrSequenceOverflow, ms)
	}
	return Compose(ms, g.node, seq), nil
}

// MustNext is like Next but panics on overflow.
func (g *Generator) MustNext() ID {
	id, err := g.Next()
	if err != nil {
		panic(err)
	}
	return id
}

func (g *Generator) advance() (int64, uint16, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.NowMs()
	switch {
	case now != g.lastMs:
		g.seq = 0
		g.lastMs = now
	case g.seq == MaxSequence:
		return g.lastMs, 0, false
	default:
		g.seq++
	}
	return g.lastMs, uint16(g.seq), true
}
