package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Options tunes a Persister. Zero values fall back to the defaults below.
type Options struct {
	Attempts   int           // total tries per flush (default 3)
	Interval   time.Duration // initial backoff interval (default 50ms)
	FatalAfter int           // consecutive failed flushes before OnFatal (default 5)
	OnFatal    func(record string, err error)

	// OnFailure runs for every flush that exhausts its retries.
	OnFailure func(record string, err error)
}

const (
	defaultAttempts   = 3
	defaultInterval   = 50 * time.Millisecond
	defaultFatalAfter = 5
)

// Persister flushes one record to a Backend.
//
// Flushes are serialized by mu and the snapshot is taken while mu is held,
// so a later change is never overwritten by an earlier one.
type Persister struct {
	backend Backend
	record  string
	opts    Options

	mu       sync.Mutex
	failures atomic.Int32
}

// NewPersister binds record to backend.
func NewPersister(backend Backend, record string, opts Options) *Persister {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.FatalAfter <= 0 {
		opts.FatalAfter = defaultFatalAfter
	}
	return &Persister{backend: backend, record: record, opts: opts}
}

// Record returns the record name this persister writes.
func (p *Persister) Record() string { return p.record }

// Load decodes the stored document into v. A missing or empty document
// leaves v untouched and returns nil. Undecodable data returns an error
// wrapping ErrMalformed.
func (p *Persister) Load(ctx context.Context, v any) error {
	data, err := p.backend.Load(ctx, p.record)
	if err != nil {
		return fmt.Errorf("load %s: %w", p.record, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, p.record, err)
	}
	return nil
}

// Save snapshots the collection via snapshot and writes it, retrying with
// exponential backoff. On exhaustion it returns a *PersistenceError.
func (p *Persister) Save(ctx context.Context, snapshot func() any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(snapshot())
	if err != nil {
		return &PersistenceError{Record: p.record, Attempts: 0, Err: err}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.opts.Interval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.opts.Attempts-1)), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := p.backend.Save(ctx, p.record, data); err != nil {
			log.Warn().Err(err).Str("record", p.record).Int("attempt", attempt).Msg("persist failed")
			return err
		}
		return nil
	}, b)

	if err == nil {
		p.failures.Store(0)
		return nil
	}

	perr := &PersistenceError{Record: p.record, Attempts: attempt, Err: err}
	n := int(p.failures.Add(1))
	log.Error().Err(err).Str("record", p.record).Int("attempts", attempt).Int("consecutive", n).Msg("persist gave up")
	if p.opts.OnFailure != nil {
		p.opts.OnFailure(p.record, perr)
	}
	if n == p.opts.FatalAfter && p.opts.OnFatal != nil {
		p.opts.OnFatal(p.record, perr)
	}
	return perr
}

// Healthy reports whether the consecutive-failure count is below the
// fatal threshold.
func (p *Persister) Healthy() bool {
	return int(p.failures.Load()) < p.opts.FatalAfter
}
