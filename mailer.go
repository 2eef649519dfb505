package authkit

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

type mailKind uint8

const (
	mailConfirmation mailKind = iota
	mailPasswordReset
)

type mailJob struct {
	kind     mailKind
	email    string
	username string
	token    string
}

// mailDispatcher drains queued sends on a single goroutine so engine flows
// never block on, or fail from, mail delivery. A nil dispatcher drops
// everything, so callers never branch on whether a [Mailer] was supplied.
type mailDispatcher struct {
	mailer  Mailer
	metrics *Metrics

	dropIfFull bool
	jobs       chan mailJob
	done       chan struct{}
	wg         sync.WaitGroup
	dropped    atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

func newMailDispatcher(mailer Mailer, cfg MailConfig, metrics *Metrics) *mailDispatcher {
	if mailer == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &mailDispatcher{
		mailer:     mailer,
		metrics:    metrics,
		dropIfFull: cfg.DropIfFull,
		jobs:       make(chan mailJob, cfg.BufferSize),
		done:       make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *mailDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobs:
			d.send(job)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain delivers whatever is still queued at close time.
func (d *mailDispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.send(job)
		default:
			return
		}
	}
}

// send runs on the worker goroutine. The originating request context may be
// long gone by now, so delivery uses a fresh background context.
func (d *mailDispatcher) send(job mailJob) {
	var err error
	switch job.kind {
	case mailConfirmation:
		err = d.mailer.SendConfirmation(context.Background(), job.email, job.username, job.token)
	case mailPasswordReset:
		err = d.mailer.SendPasswordReset(context.Background(), job.email, job.username, job.token)
	}
	if err != nil {
		d.metrics.Inc(MetricMailFailed)
		log.Print("authkit: mail send failed: ", err)
		return
	}
	d.metrics.Inc(MetricMailSent)
}

func (d *mailDispatcher) enqueue(ctx context.Context, job mailJob) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.jobs <- job:
		case <-d.done:
		default:
			d.dropped.Add(1)
			log.Print("authkit: mail queue full, dropping message")
		}
		return
	}

	select {
	case d.jobs <- job:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *mailDispatcher) sendConfirmation(ctx context.Context, email, username, token string) {
	d.enqueue(ctx, mailJob{kind: mailConfirmation, email: email, username: username, token: token})
}

func (d *mailDispatcher) sendPasswordReset(ctx context.Context, email, username, token string) {
	d.enqueue(ctx, mailJob{kind: mailPasswordReset, email: email, username: username, token: token})
}

func (d *mailDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *mailDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
