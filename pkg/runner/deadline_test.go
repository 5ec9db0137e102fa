package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingCloser 模拟卡住的远程读取,Close 之后读取才返回
type blockingCloser struct {
	closed chan struct{}
}

func (b *blockingCloser) Close() error {
	close(b.closed)
	return nil
}

func TestCloseOnDone_Completes(t *testing.T) {
	c := &blockingCloser{closed: make(chan struct{})}
	out, err := CloseOnDone(context.Background(), c, func() string { return "a.example.com " })
	require.NoError(t, err)
	assert.Equal(t, "a.example.com ", out)

	select {
	case <-c.closed:
		t.Fatal("closer should not be closed when task finishes first")
	default:
	}
}

func TestCloseOnDone_TimeoutUnblocksTask(t *testing.T) {
	c := &blockingCloser{closed: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	out, err := CloseOnDone(ctx, c, func() string {
		<-c.closed
		return "partial"
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 2*time.Second)
}
