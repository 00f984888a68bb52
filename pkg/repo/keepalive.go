package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/umd-lib/plastron-go/internal/mlog"
)

// Supervisor periodically calls a maintain function on a ticker, stopping
// itself and recording failure if maintain returns an error.
//
// Grounded on TransactionKeepAlive(threading.Thread) in plastron/client.py,
// adapted from a polling thread with Event flags to a ticker-driven
// goroutine with a cancelable context and atomic flag.
type Supervisor struct {
	interval time.Duration
	maintain func(ctx context.Context) error
	logger   mlog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	failed atomic.Bool

	mu  sync.Mutex
	err error
}

// NewSupervisor constructs a Supervisor that calls maintain every interval
// until Stop is called or maintain fails.
func NewSupervisor(interval time.Duration, maintain func(ctx context.Context) error, logger mlog.Logger) *Supervisor {
	if logger == nil {
		logger = &mlog.NoneLogger{}
	}

	return &Supervisor{interval: interval, maintain: maintain, logger: logger}
}

// Start begins the maintenance loop in a new goroutine. It is safe to call
// Start only once per Supervisor.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.maintain(ctx); err != nil {
				s.logger.Errorf("transaction maintenance failed: %v", err)
				s.setErr(err)
				s.failed.Store(true)
				return
			}
		}
	}
}

func (s *Supervisor) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Err returns the error that caused the supervisor to stop, if any.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Failed reports whether a maintenance call has failed.
func (s *Supervisor) Failed() bool {
	return s.failed.Load()
}

// Stop cancels the maintenance loop and waits for it to exit. Safe to call
// multiple times and from multiple goroutines.
func (s *Supervisor) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}

		if s.done != nil {
			<-s.done
		}
	})
}
