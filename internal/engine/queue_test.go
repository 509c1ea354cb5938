package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingQueue_SwapPreservesOrder(t *testing.T) {
	q := newStagingQueue()
	for _, kind := range []string{"a", "b", "c"} {
		require.True(t, q.Stage(mutation{kind: kind}))
	}
	assert.Equal(t, 3, q.Len())

	got := q.Swap()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].kind)
	assert.Equal(t, "c", got[2].kind)
	assert.Zero(t, q.Len())

	assert.Empty(t, q.Swap())
}

func TestStagingQueue_SwapDoesNotAliasPending(t *testing.T) {
	q := newStagingQueue()
	q.Stage(mutation{kind: "first"})
	batch := q.Swap()

	q.Stage(mutation{kind: "second"})
	assert.Equal(t, "first", batch[0].kind, "staging after a swap leaves the taken slice intact")
	assert.Equal(t, "second", q.Swap()[0].kind)
}

func TestStagingQueue_CloseReturnsPending(t *testing.T) {
	q := newStagingQueue()
	q.Stage(mutation{kind: "x"})

	left := q.Close()
	require.Len(t, left, 1)
	assert.False(t, q.Stage(mutation{kind: "y"}))
	assert.Nil(t, q.Close())
}

func TestStagingQueue_ConcurrentStage(t *testing.T) {
	q := newStagingQueue()
	const producers, each = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Stage(mutation{kind: "m"})
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		total += len(q.Swap())
		select {
		case <-done:
			total += len(q.Swap())
			assert.Equal(t, producers*each, total)
			return
		default:
		}
	}
}
