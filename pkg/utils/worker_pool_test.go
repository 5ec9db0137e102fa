package utils

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	var done atomic.Int32
	wp := NewWorkerPool(3)
	for range 20 {
		wp.Execute(func() { done.Add(1) })
	}
	wp.Wait()
	assert.Equal(t, int32(20), done.Load())
}

func TestWorkerPool_PanicHandler(t *testing.T) {
	var mu sync.Mutex
	var recovered []any
	wp := NewWorkerPool(1, WithPanicHandler(func(r any) {
		mu.Lock()
		recovered = append(recovered, r)
		mu.Unlock()
	}))

	var after atomic.Bool
	wp.Execute(func() { panic("boom") })
	wp.Execute(func() { after.Store(true) })
	wp.Wait()

	assert.Equal(t, []any{"boom"}, recovered)
	assert.True(t, after.Load(), "a panic must not leak the semaphore")
}
