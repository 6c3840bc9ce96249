package flake

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rexliu/flake/pkg/node"
)

const testNode = node.ID(123456789)

func TestSequenceIncrement(t *testing.T) {
	g := New(testNode, WithClock(FixedClock(1_700_000_000_000)))

	const n = 1000
	seen := make(map[ID]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		seen[id] = struct{}{}
		assert.Equal(t, uint16(i), id.Sequence())
		assert.Equal(t, int64(1_700_000_000_000), id.Timestamp())
		assert.Equal(t, "0000075bcd15", id.Hex()[16:28])
	}
	assert.Len(t, seen, n)
}

func TestTickClockUniqueness(t *testing.T) {
	g := New(testNode, WithClock(TickClock(SystemClock, time.Minute)))

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[g.MustNext().Hex()] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestSequenceOverflow(t *testing.T) {
	g := New(testNode, WithClock(FixedClock(42)))

	for i := 0; i <= MaxSequence; i++ {
		id, err := g.Next()
		require.NoError(t, err, "call %d", i+1)
		require.Equal(t, uint16(i), id.Sequence())
	}
	_, err := g.Next()
	assert.ErrorIs(t, err, ErrSequenceOverflow)

	// Still exhausted: time has not moved.
	_, err = g.Next()
	assert.ErrorIs(t, err, ErrSequenceOverflow)
	assert.Panics(t, func() { g.MustNext() })
}

func TestOverflowRecoversOnTick(t *testing.T) {
	var now int64 = 1000
	g := New(testNode, WithClock(ClockFunc(func() int64 { return atomic.LoadInt64(&now) })))

	for i := 0; i <= MaxSequence; i++ {
		g.MustNext()
	}
	_, err := g.Next()
	require.ErrorIs(t, err, ErrSequenceOverflow)

	atomic.StoreInt64(&now, 1001)
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1001), id.Timestamp())
	assert.Equal(t, uint16(0), id.Sequence())
}

func TestSequenceReset(t *testing.T) {
	g := New(testNode)

	first := g.MustNext()
	time.Sleep(10 * time.Millisecond)
	second := g.MustNext()

	assert.Equal(t, uint16(0), first.Sequence())
	assert.Equal(t, uint16(0), second.Sequence())
	assert.Greater(t, second.Timestamp(), first.Timestamp())
}

func TestSequenceResetScripted(t *testing.T) {
	readings := []int64{10, 10, 10, 11, 11, 12}
	var i int
	clock := ClockFunc(func() int64 {
		v := readings[i]
		if i < len(readings)-1 {
			i++
		}
		return v
	})
	// The first reading is consumed by New.
	g := New(testNode, WithClock(clock))

	var got []uint16
	for j := 0; j < 5; j++ {
		got = append(got, g.MustNext().Sequence())
	}
	assert.Equal(t, []uint16{0, 1, 0, 1, 0}, got)
}

func TestMonotonicWithinGenerator(t *testing.T) {
	var now int64 = 5000
	g := New(testNode, WithClock(ClockFunc(func() int64 { return now })))

	prev := g.MustNext()
	for i := 0; i < 2000; i++ {
		if i%300 == 0 {
			now++
		}
		next := g.MustNext()
		require.Equal(t, -1, prev.Compare(next))
		prev = next
	}
}

func TestConcurrentGenerate(t *testing.T) {
	g := New(testNode)

	const workers, rounds = 100, 1000
	var (
		mu   sync.Mutex
		seen = make(map[ID]struct{}, workers*rounds)
		wg   sync.WaitGroup
		errs int32
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]ID, 0, rounds)
			for r := 0; r < rounds; r++ {
				id, err := g.Next()
				for errors.Is(err, ErrSequenceOverflow) {
					time.Sleep(time.Millisecond)
					id, err = g.Next()
				}
				if err != nil {
					atomic.AddInt32(&errs, 1)
					continue
				}
				local = append(local, id)
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Zero(t, atomic.LoadInt32(&errs))
	assert.Len(t, seen, workers*rounds)
	for id := range seen {
		require.Equal(t, testNode.Bytes(), id.Node())
	}
}

func TestNewFromSource(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		g, err := NewFromSource(node.Fixed(uint64(testNode)))
		require.NoError(t, err)
		assert.Equal(t, testNode, g.NodeID())
		assert.Equal(t, testNode.Bytes(), g.MustNext().Node())
	})

	t.Run("resolution failure", func(t *testing.T) {
		g, err := NewFromSource(node.SourceFunc(func() (node.ID, error) {
			return 0, node.ErrNoViableInterface
		}))
		assert.Nil(t, g)
		assert.ErrorIs(t, err, node.ErrNoViableInterface)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewFromSource(nil)
		assert.True(t, errors.Is(err, ErrNilSource))
	})
}

func TestOverflowLogged(t *testing.T) {
	rec := &countingLogger{}
	g := New(testNode, WithClock(FixedClock(7)), WithLogger(rec))
	for i := 0; i <= MaxSequence; i++ {
		g.MustNext()
	}
	_, err := g.Next()
	require.Error(t, err)
	assert.Equal(t, 1, rec.n)
}

type countingLogger struct{ n int }

func (c *countingLogger) Debugf(string, ...any) { c.n++ }

func BenchmarkNext(b *testing.B) {
	g := New(testNode)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = g.Next()
		}
	})
}
