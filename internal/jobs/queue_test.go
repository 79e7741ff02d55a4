package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noop(context.Context) error { return nil }

func TestQueueEnqueue(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, testLogger())
	require.NoError(t, q.Enqueue(NewFuncJob("a", noop)))
	require.NoError(t, q.Enqueue(NewFuncJob("b", noop)))

	err := q.Enqueue(NewFuncJob("c", noop))
	assert.ErrorIs(t, err, ErrQueueFull)

	got := <-q.Channel()
	assert.Equal(t, "a", got.Type())
}

func TestQueueClose(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, nil)
	require.NoError(t, q.Enqueue(NewFuncJob("a", noop)))
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(NewFuncJob("b", noop)), ErrQueueClosed)

	// Queued jobs survive close
	job, ok := <-q.Channel()
	require.True(t, ok)
	assert.Equal(t, "a", job.Type())

	_, ok = <-q.Channel()
	assert.False(t, ok)
}

func TestFuncJob(t *testing.T) {
	t.Parallel()

	called := false
	job := NewFuncJob(JobTypeInvalidation, func(context.Context) error {
		called = true
		return nil
	})

	assert.NotEqual(t, job.ID(), NewFuncJob(JobTypeInvalidation, noop).ID())
	assert.Equal(t, JobTypeInvalidation, job.Type())
	require.NoError(t, job.Execute(context.Background()))
	assert.True(t, called)
}
