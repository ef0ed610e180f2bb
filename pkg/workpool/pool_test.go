package workpool_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

func Test_Submit_Returns_Result_When_Task_Succeeds(t *testing.T) {
	t.Parallel()

	pool := workpool.New(4)
	defer pool.Close()

	require.Equal(t, 4, pool.Workers())

	handles := make([]*workpool.Handle[int], 100)
	for i := range handles {
		handles[i] = workpool.Submit(pool, func() (int, error) {
			return i * i, nil
		})
	}

	results, err := workpool.WaitAll(handles)
	require.NoError(t, err)

	for i, got := range results {
		assert.Equal(t, i*i, got)
	}

	// A handle can be waited on again.
	again, err := handles[7].Wait()
	require.NoError(t, err)
	assert.Equal(t, 49, again)
}

func Test_New_Uses_GOMAXPROCS_When_Workers_Not_Positive(t *testing.T) {
	t.Parallel()

	pool := workpool.New(0)
	defer pool.Close()

	assert.Positive(t, pool.Workers())
}

func Test_Wait_Returns_Task_Error_When_Task_Fails(t *testing.T) {
	t.Parallel()

	pool := workpool.New(2)
	defer pool.Close()

	boom := errors.New("boom")

	h := workpool.Submit(pool, func() (string, error) {
		return "", boom
	})

	_, err := h.Wait()
	require.ErrorIs(t, err, boom)
}

func Test_Wait_Returns_ErrTaskPanicked_When_Task_Panics(t *testing.T) {
	t.Parallel()

	pool := workpool.New(1)
	defer pool.Close()

	h := workpool.Submit(pool, func() (int, error) {
		panic("corrupt chunk")
	})

	_, err := h.Wait()
	require.ErrorIs(t, err, workpool.ErrTaskPanicked)
	assert.Contains(t, err.Error(), "corrupt chunk")

	// The worker survives the panic.
	ok, err := workpool.Submit(pool, func() (int, error) { return 1, nil }).Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, ok)
}

func Test_WaitAll_Waits_For_Every_Task_When_One_Fails(t *testing.T) {
	t.Parallel()

	pool := workpool.New(3)
	defer pool.Close()

	var finished atomic.Int32

	boom := errors.New("boom")
	handles := make([]*workpool.Handle[int], 6)

	for i := range handles {
		handles[i] = workpool.Submit(pool, func() (int, error) {
			defer finished.Add(1)

			if i == 1 {
				return 0, boom
			}

			time.Sleep(5 * time.Millisecond)

			return i, nil
		})
	}

	results, err := workpool.WaitAll(handles)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task 1")
	assert.Nil(t, results)
	assert.Equal(t, int32(6), finished.Load(), "WaitAll must be a full barrier")
}

func Test_Submit_Does_Not_Block_When_Workers_Busy(t *testing.T) {
	t.Parallel()

	pool := workpool.New(1)
	defer pool.Close()

	release := make(chan struct{})
	blocker := workpool.Submit(pool, func() (struct{}, error) {
		<-release

		return struct{}{}, nil
	})

	submitted := make(chan []*workpool.Handle[int])

	go func() {
		hs := make([]*workpool.Handle[int], 1000)
		for i := range hs {
			hs[i] = workpool.Submit(pool, func() (int, error) { return i, nil })
		}
		submitted <- hs
	}()

	var handles []*workpool.Handle[int]

	select {
	case handles = <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked while the only worker was busy")
	}

	assert.Positive(t, pool.Pending())

	close(release)

	_, err := blocker.Wait()
	require.NoError(t, err)

	results, err := workpool.WaitAll(handles)
	require.NoError(t, err)
	assert.Equal(t, 999, results[999])
}

func Test_Close_Drains_Queue_When_Tasks_Pending(t *testing.T) {
	t.Parallel()

	pool := workpool.New(2)

	var ran atomic.Int32

	handles := make([]*workpool.Handle[int], 50)
	for i := range handles {
		handles[i] = workpool.Submit(pool, func() (int, error) {
			time.Sleep(time.Millisecond)
			ran.Add(1)

			return i, nil
		})
	}

	pool.Close()

	assert.Equal(t, int32(50), ran.Load(), "Close must run every queued task")

	for _, h := range handles {
		select {
		case <-h.Done():
		default:
			t.Fatal("handle not done after Close")
		}
	}

	pool.Close() // idempotent
}

func Test_Submit_Returns_ErrPoolClosed_When_Pool_Closed(t *testing.T) {
	t.Parallel()

	pool := workpool.New(1)
	pool.Close()

	_, err := workpool.Submit(pool, func() (int, error) { return 1, nil }).Wait()
	require.ErrorIs(t, err, workpool.ErrPoolClosed)
}

func Test_Pool_Handles_Concurrent_Submitters_When_Shared(t *testing.T) {
	t.Parallel()

	pool := workpool.New(4)
	defer pool.Close()

	var wg sync.WaitGroup

	for g := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			handles := make([]*workpool.Handle[int], 64)
			for i := range handles {
				handles[i] = workpool.Submit(pool, func() (int, error) { return g*1000 + i, nil })
			}

			results, err := workpool.WaitAll(handles)
			assert.NoError(t, err)

			for i, got := range results {
				assert.Equal(t, g*1000+i, got)
			}
		}()
	}

	wg.Wait()
}
