// Package tasks запускает фоновые задачи с повторами и наблюдаемым результатом.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunnerClosed возвращается задачам, отправленным после Shutdown
var ErrRunnerClosed = errors.New("task runner is closed")

// Status - состояние фоновой задачи
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Func - тело задачи. Ошибка приводит к повтору, пока не исчерпаны попытки.
type Func func(ctx context.Context) error

// Config настраивает повторы и таймауты задач
type Config struct {
	MaxAttempts   int
	RetryInterval time.Duration
	Timeout       time.Duration // на одну попытку
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		RetryInterval: 500 * time.Millisecond,
		Timeout:       10 * time.Second,
	}
}

// Handle позволяет дождаться задачи и узнать её результат
type Handle struct {
	ID   string
	Name string

	done     chan struct{}
	mu       sync.Mutex
	status   Status
	err      error
	attempts int
}

// Done закрывается по завершении задачи
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait ждёт завершения задачи и возвращает её итоговую ошибку
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status возвращает текущее состояние
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err возвращает ошибку последней попытки
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Attempts возвращает число выполненных попыток
func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

func (h *Handle) finish(status Status, err error) {
	h.mu.Lock()
	h.status = status
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Stats - счётчики завершённых задач
type Stats struct {
	Succeeded int64
	Failed    int64
	InFlight  int64
}

// Runner выполняет задачи в отдельных горутинах, привязанных к контексту приложения
type Runner struct {
	cfg    Config
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	succeeded atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
}

// NewRunner создает Runner. Отмена parent прерывает ожидание между повторами.
func NewRunner(parent context.Context, cfg Config, logger *zap.Logger) *Runner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Runner{
		cfg:    cfg,
		logger: logger.Named("TaskRunner"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit запускает задачу в фоне
func (r *Runner) Submit(name string, fn Func) *Handle {
	h := &Handle{
		ID:     uuid.NewString(),
		Name:   name,
		done:   make(chan struct{}),
		status: StatusRunning,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.failed.Add(1)
		h.finish(StatusFailed, ErrRunnerClosed)
		return h
	}

	r.wg.Add(1)
	r.inFlight.Add(1)
	go r.run(h, fn)
	return h
}

func (r *Runner) run(h *Handle, fn Func) {
	defer r.wg.Done()
	defer r.inFlight.Add(-1)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		h.mu.Lock()
		h.attempts = attempt
		h.mu.Unlock()

		lastErr = r.attempt(fn)
		if lastErr == nil {
			r.succeeded.Add(1)
			h.finish(StatusSucceeded, nil)
			return
		}

		r.logger.Warn("task attempt failed",
			zap.String("task", h.Name),
			zap.String("task_id", h.ID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt == r.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(r.cfg.RetryInterval * time.Duration(attempt)):
		case <-r.ctx.Done():
			lastErr = fmt.Errorf("%w (cancelled after %d attempts: %v)", r.ctx.Err(), attempt, lastErr)
			r.failed.Add(1)
			h.finish(StatusFailed, lastErr)
			return
		}
	}

	r.logger.Error("task failed",
		zap.String("task", h.Name),
		zap.String("task_id", h.ID),
		zap.Int("attempts", r.cfg.MaxAttempts),
		zap.Error(lastErr))
	r.failed.Add(1)
	h.finish(StatusFailed, lastErr)
}

func (r *Runner) attempt(fn Func) (err error) {
	ctx := r.ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx)
}

// Stats возвращает счётчики
func (r *Runner) Stats() Stats {
	return Stats{
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		InFlight:  r.inFlight.Load(),
	}
}

// Shutdown перестаёт принимать задачи и ждёт завершения запущенных.
// Если ctx истекает раньше, оставшиеся задачи отменяются.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
