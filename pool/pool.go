package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	"golang.org/x/sync/errgroup"
)

// Pool is a bounded pool of resources created by a Manager.
type Pool[T any] struct {
	mgr    Manager[T]
	cfg    Config
	logger *slog.Logger

	res *puddle.Pool[T]

	evicted atomic.Int64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a pool. No resources are created until Get or Warm is called.
// If cfg.HealthCheckPeriod is set a background sweep runs until Close.
func New[T any](mgr Manager[T], cfg Config, logger *slog.Logger) (*Pool[T], error) {
	if mgr == nil {
		return nil, errors.New("manager is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool[T]{
		mgr:    mgr,
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}

	res, err := puddle.NewPool(&puddle.Config[T]{
		Constructor: mgr.Connect,
		Destructor:  p.destroy,
		MaxSize:     cfg.MaxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	p.res = res

	if cfg.HealthCheckPeriod > 0 {
		p.wg.Add(1)
		go p.healthLoop()
	}

	return p, nil
}

// Get checks out a resource. Broken and invalid resources are destroyed and
// replaced until a good one is found or the context (bounded by
// ConnectionTimeout) ends. Errors from Manager.Connect are wrapped, not replaced.
func (p *Pool[T]) Get(ctx context.Context) (*Conn[T], error) {
	if p.cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectionTimeout)
		defer cancel()
	}

	for {
		res, err := p.res.Acquire(ctx)
		if err != nil {
			if errors.Is(err, puddle.ErrClosedPool) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("acquire connection: %w", err)
		}

		if err := p.check(res.Value()); err != nil {
			p.evict(res, err)
			continue
		}

		return &Conn[T]{res: res, pool: p}, nil
	}
}

func (p *Pool[T]) check(v T) error {
	if p.mgr.HasBroken(v) {
		return errBroken
	}
	if p.cfg.SkipValidation {
		return nil
	}
	return p.mgr.IsValid(v)
}

func (p *Pool[T]) evict(res *puddle.Resource[T], reason error) {
	p.evicted.Add(1)
	p.logger.Debug("evicting connection",
		"reason", reason,
		"age", time.Since(res.CreationTime()),
	)
	res.Destroy()
}

func (p *Pool[T]) destroy(v T) {
	c, ok := any(v).(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		p.logger.Debug("close connection", "error", err)
	}
}

// Sweep destroys every idle resource the manager reports as broken and
// returns how many were removed. Resources checked out are not touched.
func (p *Pool[T]) Sweep() int {
	removed := 0
	for _, res := range p.res.AcquireAllIdle() {
		if p.mgr.HasBroken(res.Value()) {
			p.evict(res, errBroken)
			removed++
			continue
		}
		res.ReleaseUnused()
	}
	return removed
}

// Warm creates resources in parallel until MinIdle are idle or the pool is full.
func (p *Pool[T]) Warm(ctx context.Context) error {
	stat := p.res.Stat()
	missing := p.cfg.MinIdle - int(stat.IdleResources())
	if room := int(stat.MaxResources() - stat.TotalResources()); missing > room {
		missing = room
	}
	if missing <= 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < missing; i++ {
		g.Go(func() error {
			err := p.res.CreateResource(ctx)
			if errors.Is(err, puddle.ErrNotAvailable) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return ErrClosed
		}
		return fmt.Errorf("warm pool: %w", err)
	}
	return nil
}

func (p *Pool[T]) healthLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.HealthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if n := p.Sweep(); n > 0 {
				p.logger.Info("swept broken connections", "removed", n)
			}
			p.warmInBackground()
		}
	}
}

func (p *Pool[T]) warmInBackground() {
	if p.cfg.MinIdle == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if p.cfg.ConnectionTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, p.cfg.ConnectionTimeout)
		defer timeoutCancel()
	}

	if err := p.Warm(ctx); err != nil && !errors.Is(err, ErrClosed) {
		p.logger.Warn("failed to refill pool", "error", err)
	}
}

// Ping checks out a connection and returns it, verifying the pool can serve.
func (p *Pool[T]) Ping(ctx context.Context) error {
	c, err := p.Get(ctx)
	if err != nil {
		return err
	}
	c.Release()
	return nil
}

// Stat returns current pool statistics.
func (p *Pool[T]) Stat() Stat {
	s := p.res.Stat()
	return Stat{
		Total:                s.TotalResources(),
		Idle:                 s.IdleResources(),
		Acquired:             s.AcquiredResources(),
		Constructing:         s.ConstructingResources(),
		Max:                  s.MaxResources(),
		AcquireCount:         s.AcquireCount(),
		EmptyAcquireCount:    s.EmptyAcquireCount(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
		Evicted:              p.evicted.Load(),
	}
}

// Close stops the background sweep and closes the pool. It blocks until every
// checked-out resource has been released or destroyed.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.res.Close()
	})
}

// Conn is a checked-out resource. Release or Destroy it exactly once;
// further calls are ignored.
type Conn[T any] struct {
	res  *puddle.Resource[T]
	pool *Pool[T]
	once sync.Once
}

// Value returns the underlying resource.
func (c *Conn[T]) Value() T {
	return c.res.Value()
}

// Release returns the resource to the pool, or destroys it if the manager
// reports it broken.
func (c *Conn[T]) Release() {
	c.once.Do(func() {
		if c.pool.mgr.HasBroken(c.res.Value()) {
			c.pool.evict(c.res, errBroken)
			return
		}
		c.res.Release()
	})
}

// Destroy removes the resource from the pool and closes it.
func (c *Conn[T]) Destroy() {
	c.once.Do(func() {
		c.res.Destroy()
	})
}
