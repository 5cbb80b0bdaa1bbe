package game

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled callback. Cancel is idempotent; cancelling
// a task that already fired is a no-op.
type Task interface {
	Cancel()
}

// Scheduler runs the countdown tick and the delayed end-of-game triggers.
// Callbacks may run on a different goroutine than the event handlers, so
// everything they touch is guarded by the session mutex.
type Scheduler interface {
	After(d time.Duration, fn func()) Task
	Every(interval time.Duration, fn func()) Task
}

// TimeScheduler is the production Scheduler backed by the time package.
type TimeScheduler struct{}

func NewScheduler() *TimeScheduler {
	return &TimeScheduler{}
}

func (TimeScheduler) After(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	return &timerTask{timer: time.AfterFunc(d, fn)}
}

func (TimeScheduler) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return task
}

type timerTask struct {
	timer *time.Timer
}

// Timer.Stop is already safe to call repeatedly.
func (t *timerTask) Cancel() {
	t.timer.Stop()
}

type tickerTask struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}
