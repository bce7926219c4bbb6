package worker

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/pkg/clock"

	"github.com/google/uuid"
)

// JobStore is the durable side of the schedule.
type JobStore interface {
	ListPending(ctx context.Context, limit int) ([]fulfillment.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error
}

// JobRunner applies one due job.
type JobRunner func(ctx context.Context, job fulfillment.Job) error

// FulfillmentScheduler fires persisted delivery transitions on in-process
// timers. A periodic sweep re-arms anything pending in the store, which
// covers restarts and jobs whose run failed.
//
// Jobs of one order run one at a time in FireAt order: each order holds a
// single timer for its earliest job and the next one is armed only after
// the previous run finished.
type FulfillmentScheduler struct {
	store         JobStore
	clock         clock.Clock
	sweepInterval time.Duration
	batchSize     int
	workers       int
	logger        *slog.Logger

	mu      sync.Mutex
	armed   map[uuid.UUID]struct{}
	orders  map[uuid.UUID]*orderQueue
	due     chan fulfillment.Job
	run     JobRunner
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// orderQueue holds the armed jobs of one order, earliest first.
type orderQueue struct {
	jobs    []fulfillment.Job
	timer   *time.Timer
	running bool
}

func NewFulfillmentScheduler(store JobStore, clk clock.Clock, sweepInterval time.Duration, batchSize, workers int, logger *slog.Logger) *FulfillmentScheduler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &FulfillmentScheduler{
		store:         store,
		clock:         clk,
		sweepInterval: sweepInterval,
		batchSize:     batchSize,
		workers:       workers,
		logger:        logger,
		armed:         make(map[uuid.UUID]struct{}),
		orders:        make(map[uuid.UUID]*orderQueue),
		due:           make(chan fulfillment.Job, batchSize),
	}
}

// Schedule arms timers for jobs already persisted. Before Start it is a
// no-op; the first sweep picks the jobs up from the store.
func (s *FulfillmentScheduler) Schedule(jobs ...fulfillment.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for _, job := range jobs {
		s.armLocked(job)
	}
}

// Start launches the workers and the recovery sweep. run is passed here
// rather than at construction because the runner itself schedules jobs.
func (s *FulfillmentScheduler) Start(ctx context.Context, run JobRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.run = run
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.wg.Add(1)
	go s.sweepLoop()
}

func (s *FulfillmentScheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for id, q := range s.orders {
		if q.timer != nil {
			q.timer.Stop()
		}
		delete(s.orders, id)
	}
	clear(s.armed)
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
}

// Armed reports how many jobs are waiting or running.
func (s *FulfillmentScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// armLocked expects s.mu to be held.
func (s *FulfillmentScheduler) armLocked(job fulfillment.Job) {
	if _, ok := s.armed[job.ID]; ok {
		return
	}
	s.armed[job.ID] = struct{}{}

	q, ok := s.orders[job.OrderID]
	if !ok {
		q = &orderQueue{}
		s.orders[job.OrderID] = q
	}
	i, _ := slices.BinarySearchFunc(q.jobs, job, func(a, b fulfillment.Job) int {
		return a.FireAt.Compare(b.FireAt)
	})
	q.jobs = slices.Insert(q.jobs, i, job)
	if !q.running {
		s.resetTimerLocked(job.OrderID, q)
	}
}

// resetTimerLocked points the order's timer at its earliest job.
func (s *FulfillmentScheduler) resetTimerLocked(orderID uuid.UUID, q *orderQueue) {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if len(q.jobs) == 0 {
		delete(s.orders, orderID)
		return
	}
	delay := q.jobs[0].FireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	q.timer = time.AfterFunc(delay, func() { s.fire(orderID) })
}

// fire hands the order's earliest job to the workers.
func (s *FulfillmentScheduler) fire(orderID uuid.UUID) {
	s.mu.Lock()
	q, ok := s.orders[orderID]
	if !ok || q.running || len(q.jobs) == 0 || !s.started {
		s.mu.Unlock()
		return
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.running = true
	if q.timer != nil {
		// a stale callback may get here before the current timer
		q.timer.Stop()
		q.timer = nil
	}
	ctx := s.runCtx
	s.mu.Unlock()

	select {
	case s.due <- job:
	case <-ctx.Done():
	}
}

// finish releases the order for its next job. After a failure the rest of
// the order is dropped too so the sweep re-arms it in order.
func (s *FulfillmentScheduler) finish(job fulfillment.Job, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.armed, job.ID)

	q, ok := s.orders[job.OrderID]
	if !ok {
		return
	}
	q.running = false
	if failed {
		for _, rest := range q.jobs {
			delete(s.armed, rest.ID)
		}
		q.jobs = nil
	}
	if !s.started {
		return
	}
	s.resetTimerLocked(job.OrderID, q)
}

func (s *FulfillmentScheduler) sweepLoop() {
	defer s.wg.Done()
	s.sweep()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep arms pending jobs due before the next sweep; later ones wait.
func (s *FulfillmentScheduler) sweep() {
	jobs, err := s.store.ListPending(s.runCtx, s.batchSize)
	if err != nil {
		s.logger.Error("list pending fulfillment jobs failed", slog.String("error", err.Error()))
		return
	}

	horizon := s.clock.Now().Add(s.sweepInterval)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for _, job := range jobs {
		if job.FireAt.After(horizon) {
			continue
		}
		s.armLocked(job)
	}
}

func (s *FulfillmentScheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.runCtx.Done():
			return
		case job := <-s.due:
			s.handle(job)
		}
	}
}

func (s *FulfillmentScheduler) handle(job fulfillment.Job) {
	if err := s.run(s.runCtx, job); err != nil {
		s.logger.Error("fulfillment job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("order_id", job.OrderID.String()),
			slog.String("target", job.Target.String()),
			slog.String("error", err.Error()))
		s.finish(job, true)
		return
	}
	if err := s.store.MarkDone(s.runCtx, job.ID, s.clock.Now()); err != nil {
		s.logger.Error("mark fulfillment job done failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
	s.finish(job, false)
}
