// Package parallel runs independent batch merges on a fixed set of worker
// goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is one unit of work. worker is the index of the goroutine running it,
// in [0, Workers()). A worker runs one task at a time, so per-worker state
// indexed by worker needs no locking.
type Task func(worker int)

// job ties a task to the ExecuteAll call that submitted it.
type job struct {
	task Task
	exec *execution
}

// execution tracks completion of one ExecuteAll call and keeps the first
// panic raised by any of its tasks.
type execution struct {
	wg       sync.WaitGroup
	once     sync.Once
	panicked atomic.Bool
	value    any
}

func (e *execution) run(task Task, worker int) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.once.Do(func() {
				e.value = r
				e.panicked.Store(true)
			})
		}
	}()
	task(worker)
}

// WorkerPool is a pool of goroutines with per-worker queues. Idle workers
// steal from other queues so that one large batch does not stall the rest.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan job
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan job, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan job, queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case j := <-own:
			j.exec.run(j.task, id)
			continue
		case <-p.done:
			p.drain(own, id)
			return
		default:
		}

		if j, ok := p.steal(id); ok {
			j.exec.run(j.task, id)
			continue
		}

		select {
		case j := <-own:
			j.exec.run(j.task, id)
		case <-p.done:
			p.drain(own, id)
			return
		}
	}
}

func (p *WorkerPool) drain(queue chan job, id int) {
	for {
		select {
		case j := <-queue:
			j.exec.run(j.task, id)
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) (job, bool) {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case j := <-p.queues[i]:
			return j, true
		default:
		}
	}
	return job{}, false
}

// ExecuteAll runs every task and waits for all of them. If any task
// panics, ExecuteAll re-panics on the calling goroutine after the others
// have finished.
//
// On a closed pool the tasks run sequentially on the caller as worker 0.
// Close must not be called while ExecuteAll is in progress.
func (p *WorkerPool) ExecuteAll(tasks []Task) {
	if len(tasks) == 0 {
		return
	}
	exec := &execution{}
	exec.wg.Add(len(tasks))

	if !p.running.Load() {
		for _, t := range tasks {
			exec.run(t, 0)
		}
	} else {
		for i, t := range tasks {
			p.queues[i%p.workers] <- job{task: t, exec: exec}
		}
	}
	exec.wg.Wait()

	if exec.panicked.Load() {
		panic(exec.value)
	}
}

// Close stops the workers after queued tasks have run. Safe to call more
// than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
