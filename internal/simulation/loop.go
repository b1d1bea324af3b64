package simulation

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopLoop ends a realtime loop without reporting a failure.
var ErrStopLoop = errors.New("simulation: stop loop")

// StepFunc advances the simulation by one fixed step. Returning an error stops the loop.
type StepFunc func(step time.Duration) error

// Loop paces fixed steps against the wall clock for realtime runs.
type Loop struct {
	step     time.Duration
	stepFunc StepFunc
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// NewLoop configures a loop that targets targetHz steps per second.
func NewLoop(targetHz float64, step StepFunc) *Loop {
	if targetHz <= 0 {
		targetHz = 50
	}
	if step == nil {
		step = func(time.Duration) error { return nil }
	}
	interval := time.Duration(float64(time.Second) / targetHz)
	if interval <= 0 {
		interval = time.Second / 50
	}
	return &Loop{step: interval, stepFunc: step}
}

// Start begins ticking until the context is cancelled, Stop is called or a step fails.
func (l *Loop) Start(ctx context.Context) {
	if l == nil || l.stepFunc == nil {
		return
	}
	l.ticker = time.NewTicker(l.step)
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		defer l.ticker.Stop()
		last := time.Now()
		accumulator := time.Duration(0)
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stop:
				return
			case now := <-l.ticker.C:
				//1.- Accumulate elapsed time and run fixed steps while catching up.
				accumulator += now.Sub(last)
				last = now
				for accumulator >= l.step {
					if err := l.stepFunc(l.step); err != nil {
						l.setErr(err)
						return
					}
					accumulator -= l.step
				}
			}
		}
	}()
}

// Done is closed once the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	if l == nil || l.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return l.done
}

// Stop signals the goroutine to exit and waits for it. Calling it more than once, or
// before Start, is safe.
func (l *Loop) Stop() {
	if l == nil || l.done == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// Err returns the step error that ended the loop, if any. ErrStopLoop is not reported.
func (l *Loop) Err() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if errors.Is(l.err, ErrStopLoop) {
		return nil
	}
	return l.err
}

func (l *Loop) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// StepDuration exposes the configured timestep.
func (l *Loop) StepDuration() time.Duration {
	if l == nil {
		return 0
	}
	return l.step
}
