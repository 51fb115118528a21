package scraper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chess-scout/models"
)

func makeUnits(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{Index: i, Key: string(rune('a' + i))}
	}
	return units
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	var running, peak int32
	results := Dispatch(context.Background(), makeUnits(8), DispatchOptions{Workers: 3}, zaptest.NewLogger(t),
		func(_ context.Context, u Unit) UnitResult {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return UnitResult{Games: []models.GameRecord{{Result: u.Key}}}
		})

	require.Len(t, results, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	for _, r := range results {
		assert.Equal(t, r.Unit.Key, r.Games[0].Result)
	}
}

func TestDispatchIsolatesPanics(t *testing.T) {
	results := Dispatch(context.Background(), makeUnits(4), DispatchOptions{Workers: 2}, zaptest.NewLogger(t),
		func(_ context.Context, u Unit) UnitResult {
			if u.Index == 1 {
				panic("boom")
			}
			return UnitResult{Games: []models.GameRecord{{}}}
		})

	require.Len(t, results, 4)
	var panicked, ok int
	for _, r := range results {
		switch r.Skip {
		case SkipPanic:
			panicked++
			assert.Empty(t, r.Games)
			assert.Equal(t, 1, r.Unit.Index)
		case SkipNone:
			ok++
		}
	}
	assert.Equal(t, 1, panicked)
	assert.Equal(t, 3, ok)
}

func TestDispatchStagger(t *testing.T) {
	start := time.Now()
	Dispatch(context.Background(), makeUnits(3), DispatchOptions{Workers: 2, Stagger: 20 * time.Millisecond}, zaptest.NewLogger(t),
		func(context.Context, Unit) UnitResult { return UnitResult{} })
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestDispatchEmpty(t *testing.T) {
	assert.Empty(t, Dispatch(context.Background(), nil, DispatchOptions{Workers: 5}, zaptest.NewLogger(t), nil))
}
