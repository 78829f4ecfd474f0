package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushKeepsOrder(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	q := queue.NewWithClock(func() time.Time { return fixed })

	first := q.Push("a")
	second := q.Push(map[string]any{"event": "page_view"})

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, time.UTC, first.PushedAt.Location())
	assert.True(t, first.PushedAt.Equal(fixed))

	assert.Equal(t, []any{"a", map[string]any{"event": "page_view"}}, q.Values())
	assert.Equal(t, 2, q.Len())
}

func TestQueue_SnapshotDoesNotAlias(t *testing.T) {
	q := queue.New()
	q.Push("a")

	snap := q.Snapshot()
	require.Len(t, snap, 1)
	snap[0].Value = "mutated"
	snap = append(snap, queue.Entry{Value: "extra"})

	assert.Equal(t, []any{"a"}, q.Values())
	assert.Equal(t, 1, q.Len())
	assert.Len(t, snap, 2)
}

type point struct{ xs []any }

func (p point) CloneValue() any { return point{xs: queue.CloneSlice(p.xs)} }

func TestQueue_SnapshotCopiesNestedValues(t *testing.T) {
	q := queue.New()
	q.Push(map[string]any{
		"event":  "generate_lead",
		"custom": map[string]any{"form_type": "lead_capture"},
		"items":  []any{map[string]any{"id": "a"}},
	})
	q.Push(point{xs: []any{"x"}})

	snap := q.Snapshot()
	m := snap[0].Value.(map[string]any)
	m["event"] = "changed"
	m["custom"].(map[string]any)["form_type"] = "changed"
	m["items"].([]any)[0].(map[string]any)["id"] = "changed"
	snap[1].Value.(point).xs[0] = "changed"

	vals := q.Values()
	vals[0].(map[string]any)["event"] = "changed via values"

	live := q.Values()
	orig := live[0].(map[string]any)
	assert.Equal(t, "generate_lead", orig["event"])
	assert.Equal(t, "lead_capture", orig["custom"].(map[string]any)["form_type"])
	assert.Equal(t, "a", orig["items"].([]any)[0].(map[string]any)["id"])
	assert.Equal(t, []any{"x"}, live[1].(point).xs)
}

func TestClone_PassesThroughScalars(t *testing.T) {
	assert.Equal(t, 42, queue.Clone(42))
	assert.Equal(t, "s", queue.Clone("s"))
	assert.Nil(t, queue.Clone(nil))
	assert.Nil(t, queue.CloneSlice(nil))
	var nilMap map[string]any
	assert.Nil(t, queue.Clone(nilMap))
}

func TestQueue_Concurrent(t *testing.T) {
	q := queue.New()

	const workers = 50
	const pushes = 20

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < pushes; j++ {
				q.Push(j)
				_ = q.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := q.Snapshot()
	require.Len(t, snap, workers*pushes)
	for i, e := range snap {
		assert.Equal(t, i+1, e.Seq)
	}
}
