package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type scorerFunc func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error)

func (f scorerFunc) Predict(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
	return f(ctx, modelPath, image, contentType)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestDispatcher(t *testing.T, scorer Scorer) *Dispatcher {
	t.Helper()
	d := New(scorer, 2, 10, time.Second, testLogger())
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func TestDispatchSuccessRunsCallbackBeforeRelease(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		p := 0.82
		return Prediction{Probability: &p}, nil
	})
	d := newTestDispatcher(t, scorer)

	var callbackDone atomic.Bool
	handle, err := d.Dispatch(Task{
		ID:     "t1",
		Labels: []string{"Normal", "Pneumonia"},
		OnSuccess: func(result Result) error {
			time.Sleep(20 * time.Millisecond)
			callbackDone.Store(true)
			return nil
		},
	})
	assert.NoError(t, err)

	result, err := handle.Await(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "Pneumonia", result.Label)
	assert.InDelta(t, 82.0, result.Confidence, 1e-9)
	// The finalize/debit/notify sequence must have finished before the
	// waiter was released.
	assert.True(t, callbackDone.Load())
}

func TestDispatchRemoteError(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		return Prediction{}, errors.New("connection refused")
	})
	d := newTestDispatcher(t, scorer)

	var failed atomic.Int32
	var succeeded atomic.Int32
	handle, err := d.Dispatch(Task{
		ID:        "t2",
		OnSuccess: func(Result) error { succeeded.Add(1); return nil },
		OnFailure: func(error) { failed.Add(1) },
	})
	assert.NoError(t, err)

	_, err = handle.Await(time.Second)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, int32(1), failed.Load())
	assert.Equal(t, int32(0), succeeded.Load())
}

// An abandoned wait must not cancel the task: the slow scorer still
// completes, the completion callback still runs exactly once, and a
// later wait sees the result.
func TestAwaitTimeoutDoesNotCancelTask(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		time.Sleep(100 * time.Millisecond)
		p := 0.9
		return Prediction{Probability: &p}, nil
	})
	d := newTestDispatcher(t, scorer)

	var completions atomic.Int32
	handle, err := d.Dispatch(Task{
		ID:        "t3",
		Labels:    []string{"negative", "positive"},
		OnSuccess: func(Result) error { completions.Add(1); return nil },
	})
	assert.NoError(t, err)

	_, err = handle.Await(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrAwaitTimeout)
	assert.Equal(t, int32(0), completions.Load())

	result, err := handle.Await(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "positive", result.Label)
	assert.Equal(t, int32(1), completions.Load())
}

func TestDispatchCallbackErrorSurfacesToWaiter(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		p := 0.7
		return Prediction{Probability: &p}, nil
	})
	d := newTestDispatcher(t, scorer)

	sentinel := errors.New("finalize failed")
	handle, err := d.Dispatch(Task{
		ID:        "t4",
		OnSuccess: func(Result) error { return sentinel },
	})
	assert.NoError(t, err)

	_, err = handle.Await(time.Second)
	assert.ErrorIs(t, err, sentinel)
}

func TestDispatchQueueFull(t *testing.T) {
	block := make(chan struct{})
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		<-block
		p := 0.6
		return Prediction{Probability: &p}, nil
	})
	d := New(scorer, 1, 1, time.Second, testLogger())
	d.Start()
	defer func() {
		close(block)
		d.Stop()
	}()

	// First task occupies the worker, second fills the queue.
	_, err := d.Dispatch(Task{ID: "busy"})
	assert.NoError(t, err)
	// Give the worker a moment to pick up the first task.
	time.Sleep(10 * time.Millisecond)
	_, err = d.Dispatch(Task{ID: "queued"})
	assert.NoError(t, err)

	_, err = d.Dispatch(Task{ID: "overflow"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

// Dispatch must never send on the closed queue, no matter how it
// interleaves with Stop: every racing call either enqueues or returns a
// sentinel.
func TestStopConcurrentWithDispatch(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		p := 0.6
		return Prediction{Probability: &p}, nil
	})
	d := New(scorer, 2, 4, time.Second, testLogger())
	d.Start()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 50; j++ {
				_, err := d.Dispatch(Task{ID: "racer"})
				if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("unexpected dispatch error: %v", err)
				}
			}
		}()
	}
	close(start)
	d.Stop()
	wg.Wait()

	_, err := d.Dispatch(Task{ID: "late"})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDispatchAfterStop(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
		p := 0.6
		return Prediction{Probability: &p}, nil
	})
	d := New(scorer, 1, 1, time.Second, testLogger())
	d.Start()
	d.Stop()

	_, err := d.Dispatch(Task{ID: "late"})
	assert.ErrorIs(t, err, ErrStopped)
}
