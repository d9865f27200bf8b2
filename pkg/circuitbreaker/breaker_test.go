package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(t *testing.T, timeout time.Duration) *CircuitBreaker {
	t.Helper()
	return New("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 3,
		SuccessThreshold: 1,
	})
}

func TestExecute_PassesThroughWhenClosed(t *testing.T) {
	cb := testBreaker(t, time.Minute)

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := testBreaker(t, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error {
		t.Fatal("call must not run while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecute_SuccessResetsFailureStreak(t *testing.T) {
	cb := testBreaker(t, time.Minute)
	boom := errors.New("boom")

	cb.Execute(context.Background(), func() error { return boom })
	cb.Execute(context.Background(), func() error { return boom })
	cb.Execute(context.Background(), func() error { return nil })
	cb.Execute(context.Background(), func() error { return boom })

	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_RecoversThroughHalfOpen(t *testing.T) {
	cb := testBreaker(t, 10*time.Millisecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), func() error { return boom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(t, 10*time.Millisecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), func() error { return boom })
	}
	time.Sleep(20 * time.Millisecond)

	cb.Execute(context.Background(), func() error { return boom })
	assert.Equal(t, StateOpen, cb.State())
}
