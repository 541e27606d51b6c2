package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/volt/internal/metrics"
	"github.com/allisson/volt/internal/secrets/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, operation, status string) {
	m.Called(ctx, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	m.Called(ctx, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordPurged(ctx context.Context, count int, trigger string) {
	m.Called(ctx, count, trigger)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("@every 1m"))
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.Error(t, ValidateSchedule("every minute"))
}

func TestPurgeWorker_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("records purged secrets", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return([]string{"a", "b"}, nil).Once()
		bm.On("RecordPurged", ctx, 2, metrics.PurgeTriggerWorker).Once()

		count, err := NewPurgeWorker(useCase, bm, "@every 1m", discardLogger()).RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		bm.AssertExpectations(t)
	})

	t.Run("nothing to purge", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return([]string{}, nil).Once()

		count, err := NewPurgeWorker(useCase, bm, "@every 1m", discardLogger()).RunOnce(ctx)

		require.NoError(t, err)
		assert.Zero(t, count)
		bm.AssertNotCalled(t, "RecordPurged", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		storeErr := errors.New("store closed")
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return(nil, storeErr).Once()

		_, err := NewPurgeWorker(useCase, bm, "@every 1m", discardLogger()).RunOnce(ctx)

		assert.ErrorIs(t, err, storeErr)
		bm.AssertNotCalled(t, "RecordPurged", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPurgeWorker_Start(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("empty schedule returns at once", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		w := NewPurgeWorker(useCase, metrics.NewNoOpBusinessMetrics(), "", discardLogger())

		assert.NoError(t, w.Start(context.Background()))
		assert.False(t, w.IsRunning())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		w := NewPurgeWorker(useCase, metrics.NewNoOpBusinessMetrics(), "not a schedule", discardLogger())

		assert.Error(t, w.Start(context.Background()))
	})

	t.Run("runs on schedule until canceled", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		ran := make(chan struct{}, 1)
		useCase.On("PurgeExpiredDeletedSecrets", mock.Anything, false).
			Run(func(mock.Arguments) {
				select {
				case ran <- struct{}{}:
				default:
				}
			}).
			Return([]string{}, nil)
		w := NewPurgeWorker(useCase, metrics.NewNoOpBusinessMetrics(), "@every 1s", discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- w.Start(ctx)
		}()

		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("purge did not run")
		}
		assert.True(t, w.IsRunning())

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
		assert.False(t, w.IsRunning())
	})
}
