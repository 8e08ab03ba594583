// Package workerpool supervises a fixed-size pool of tomb-managed goroutines
// that each execute one task at a time. It is the single canonical copy of
// logic the teacher repo carried, with drift, in both internal/worker.go
// and internal/net/server.go; this version generalizes the task type so
// the same pool can read client connections for matchserver or (were it
// ever needed) any other task source.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunc handles a single task. A returned error is logged; the worker
// that ran it keeps pulling tasks.
type WorkerFunc func(t *tomb.Tomb, task any) error

// Pool runs up to N WorkerFuncs concurrently, pulled from a shared task
// channel.
type Pool struct {
	size  int
	tasks chan any
}

// New constructs a pool with the given worker count.
func New(size int) *Pool {
	return &Pool{
		size:  size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Run starts exactly p.size workers under t and blocks until t is dying;
// waiting for the workers themselves to return is left to t.Wait. Each worker loops on its own, pulling from the shared
// task channel until t is dying, rather than being respawned per task —
// this avoids the spin-and-race of tracking a live worker count by hand.
func (p *Pool) Run(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.size).Msg("starting worker pool")

	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.worker(t, work)
		})
	}
	<-t.Dying()
}

// worker pulls and runs tasks until t is dying. A task that returns an
// error is logged but does not stop the worker: only the connection or
// session that produced it is affected.
func (p *Pool) worker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
