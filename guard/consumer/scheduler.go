package consumer

import (
	"context"
	"log/slog"
	"sync"
)

// scheduler runs event handling on a fixed number of workers while
// serializing all work for the same key (account id, usually): two events for
// one account never run concurrently, so the per-account escalation state is
// updated in arrival order, while unrelated accounts proceed in parallel and
// a slow audit lookup for one never blocks the others.
type scheduler struct {
	maxConcurrency int

	do func(context.Context, *streamFrame) error

	feeder chan *schedulerTask
	out    chan struct{}

	lk     sync.Mutex
	active map[string][]*schedulerTask

	log *slog.Logger
}

type schedulerTask struct {
	key     string
	val     *streamFrame
	control string
}

func newScheduler(maxC int, logger *slog.Logger, do func(context.Context, *streamFrame) error) *scheduler {
	p := &scheduler{
		maxConcurrency: maxC,

		do: do,

		feeder: make(chan *schedulerTask),
		active: make(map[string][]*schedulerTask),
		out:    make(chan struct{}),

		log: logger.With("system", "scheduler"),
	}

	for i := 0; i < maxC; i++ {
		go p.worker()
	}
	workersActive.Set(float64(maxC))

	return p
}

func (p *scheduler) Shutdown() {
	for i := 0; i < p.maxConcurrency; i++ {
		p.feeder <- &schedulerTask{
			control: "stop",
		}
	}

	close(p.feeder)

	for i := 0; i < p.maxConcurrency; i++ {
		<-p.out
	}

	p.log.Info("scheduler shutdown complete")
}

func (p *scheduler) AddWork(ctx context.Context, key string, val *streamFrame) error {
	itemsAdded.Inc()
	t := &schedulerTask{
		key: key,
		val: val,
	}
	p.lk.Lock()

	a, ok := p.active[key]
	if ok {
		// a worker already owns this key; queue behind it
		p.active[key] = append(a, t)
		p.lk.Unlock()
		return nil
	}

	p.active[key] = []*schedulerTask{}
	p.lk.Unlock()

	select {
	case p.feeder <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *scheduler) worker() {
	for work := range p.feeder {
		for work != nil {
			if work.control == "stop" {
				p.out <- struct{}{}
				return
			}

			if err := p.do(context.TODO(), work.val); err != nil {
				p.log.Error("event handler failed", "err", err)
			}
			itemsProcessed.Inc()

			p.lk.Lock()
			rem, ok := p.active[work.key]
			if !ok {
				p.log.Error("should always have an 'active' entry if a worker is processing a job")
			}

			if len(rem) == 0 {
				delete(p.active, work.key)
				work = nil
			} else {
				work = rem[0]
				p.active[work.key] = rem[1:]
			}
			p.lk.Unlock()
		}
	}
}
