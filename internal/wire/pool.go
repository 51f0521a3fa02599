package wire

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunc handles one unit of work (typically a client connection),
// returning a fatal error if the pool's tomb should die.
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool runs a bounded number of goroutines pulling from a shared
// task channel, supervised by a tomb.Tomb so the pool shuts down cleanly
// alongside the rest of the server.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool constructs a pool with room for size concurrent workers.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a unit of work for the next free worker.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Setup keeps the pool topped up with active workers until t starts
// dying.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					err := p.worker(t, work)
					active--
					return err
				})
				active++
			}
		}
	}
}

func (p *WorkerPool) worker(t *tomb.Tomb, work WorkerFunc) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting")
			return err
		}
	}
	return nil
}
