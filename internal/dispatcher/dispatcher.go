package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrAwaitTimeout means the caller stopped waiting; the task keeps
	// running and may still persist its result.
	ErrAwaitTimeout = errors.New("timed out waiting for inference result")
	ErrRemote       = errors.New("remote scorer failed")
	ErrQueueFull    = errors.New("inference queue is full")
	ErrStopped      = errors.New("dispatcher is stopped")
)

// Task is one inference job. OnSuccess runs on the worker goroutine
// after normalization and before any waiter is released; it carries the
// finalize -> debit -> notify sequence. OnFailure runs on any remote or
// normalization failure.
type Task struct {
	ID          string
	ModelPath   string
	Labels      []string
	Image       []byte
	ContentType string
	OnSuccess   func(Result) error
	OnFailure   func(error)
}

// Handle lets the submitting caller wait for completion with a bounded
// timeout. Abandoning the wait does not cancel the task.
type Handle struct {
	ID     string
	done   chan struct{}
	result Result
	err    error
}

// Await blocks until the task completes or the timeout elapses.
func (h *Handle) Await(timeout time.Duration) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-time.After(timeout):
		return Result{}, ErrAwaitTimeout
	}
}

type job struct {
	task   Task
	handle *Handle
}

// Dispatcher owns a bounded submission queue and a pool of workers that
// perform the remote scoring call out of band, so a slow scorer never
// pins a request handler beyond its bounded wait.
type Dispatcher struct {
	scorer  Scorer
	jobChan chan job

	// mu guards stopped and orders every send on jobChan before the
	// close in Stop, so a Dispatch racing with Stop can never send on a
	// closed channel.
	mu      sync.RWMutex
	stopped bool

	wg          sync.WaitGroup
	numWorkers  int
	callTimeout time.Duration
	logger      *logrus.Logger
}

func New(scorer Scorer, numWorkers, queueSize int, callTimeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = 5
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		scorer:      scorer,
		jobChan:     make(chan job, queueSize),
		numWorkers:  numWorkers,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(d.numWorkers)
	for i := 1; i <= d.numWorkers; i++ {
		go d.worker(i)
	}
	d.logger.WithField("workers", d.numWorkers).Info("Inference dispatcher started")
}

// Stop drains the queue and waits for in-flight tasks to finish. Safe
// to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobChan)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch enqueues a task and returns a handle to wait on. It never
// blocks: a full queue is surfaced to the caller instead.
func (d *Dispatcher) Dispatch(task Task) (*Handle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return nil, ErrStopped
	}
	handle := &Handle{ID: task.ID, done: make(chan struct{})}
	select {
	case d.jobChan <- job{task: task, handle: handle}:
		return handle, nil
	default:
		return nil, ErrQueueFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.jobChan {
		d.process(id, j)
	}
}

func (d *Dispatcher) process(workerID int, j job) {
	defer close(j.handle.done)

	log := d.logger.WithFields(logrus.Fields{
		"Worker": workerID,
		"TaskId": j.task.ID,
	})

	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()

	prediction, err := d.scorer.Predict(ctx, j.task.ModelPath, j.task.Image, j.task.ContentType)
	if err != nil {
		log.WithError(err).Error("Remote scoring call failed")
		j.handle.err = errors.Join(ErrRemote, err)
		if j.task.OnFailure != nil {
			j.task.OnFailure(err)
		}
		return
	}

	result, err := Normalize(prediction, j.task.Labels)
	if err != nil {
		log.WithError(err).Error("Failed to normalize scorer output")
		j.handle.err = errors.Join(ErrRemote, err)
		if j.task.OnFailure != nil {
			j.task.OnFailure(err)
		}
		return
	}

	if j.task.OnSuccess != nil {
		if err := j.task.OnSuccess(result); err != nil {
			log.WithError(err).Error("Completion callback failed")
			j.handle.err = err
			return
		}
	}

	log.WithFields(logrus.Fields{
		"Label":      result.Label,
		"Confidence": result.Confidence,
	}).Info("Inference task completed")
	j.handle.result = result
}
