package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadNaming(t *testing.T) {
	factory := NewThreadFactory("test", MaxPriority)
	t1 := factory.NewThread(func(context.Context) {})
	t2 := factory.NewThread(func(context.Context) {})

	assert.Equal(t, "test-1", t1.Name())
	assert.Equal(t, "test-2", t2.Name())
	assert.Equal(t, MaxPriority, t1.Priority())
}

func TestThreadFactoryDefaultPrefix(t *testing.T) {
	factory := NewThreadFactory("", NormPriority)
	assert.Equal(t, "worker-1", factory.NewThread(func(context.Context) {}).Name())
}

func TestThreadStartAndJoin(t *testing.T) {
	factory := NewThreadFactory("test", NormPriority)
	ran := make(chan struct{})
	thread := factory.NewThread(func(context.Context) {
		close(ran)
	})
	thread.Start()

	require.NoError(t, thread.Join(context.Background(), time.Second))
	select {
	case <-ran:
	default:
		t.Error("Expected thread body to have run")
	}
}

func TestThreadInterrupt(t *testing.T) {
	factory := NewThreadFactory("test", NormPriority)
	thread := factory.NewThread(func(ctx context.Context) {
		<-ctx.Done()
	})
	thread.Start()
	thread.Interrupt()

	assert.NoError(t, thread.Join(context.Background(), time.Second))
}

func TestThreadJoinTimeout(t *testing.T) {
	factory := NewThreadFactory("test", NormPriority)
	release := make(chan struct{})
	defer close(release)

	thread := factory.NewThread(func(context.Context) {
		<-release
	})
	thread.Start()

	err := thread.Join(context.Background(), 20*time.Millisecond)
	assert.Equal(t, ErrJoinTimeout, err)
}

func TestThreadJoinInterrupted(t *testing.T) {
	factory := NewThreadFactory("test", NormPriority)
	release := make(chan struct{})
	defer close(release)

	thread := factory.NewThread(func(context.Context) {
		<-release
	})
	thread.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := thread.Join(ctx, time.Second)
	assert.Equal(t, context.Canceled, err)
}
