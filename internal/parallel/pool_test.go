package parallel

import (
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}

	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

func TestWorkerPool_CreateNegativeWorkers(t *testing.T) {
	pool := NewWorkerPool(-5)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	numTasks := 100

	tasks := make([]Task, numTasks)
	for i := range tasks {
		tasks[i] = func(int) {
			counter.Add(1)
		}
	}

	pool.ExecuteAll(tasks)

	if counter.Load() != int64(numTasks) {
		t.Errorf("counter = %d, want %d", counter.Load(), numTasks)
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ExecuteAll(nil)
	pool.ExecuteAll([]Task{})
}

func TestWorkerPool_WorkerIndex(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Per-worker counters are only touched by their own worker, so a worker
	// running two tasks at once would show up under the race detector.
	counts := make([]int, pool.Workers())
	var bad atomic.Int32

	tasks := make([]Task, 200)
	for i := range tasks {
		tasks[i] = func(w int) {
			if w < 0 || w >= len(counts) {
				bad.Add(1)
				return
			}
			counts[w]++
		}
	}
	pool.ExecuteAll(tasks)

	if bad.Load() != 0 {
		t.Fatalf("%d tasks saw an out-of-range worker index", bad.Load())
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(tasks) {
		t.Errorf("tasks run = %d, want %d", total, len(tasks))
	}
}

func TestWorkerPool_ExecuteAll_UnevenWork(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]Task, 16)
	for i := range tasks {
		tasks[i] = func(int) {
			if i%4 == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			counter.Add(1)
		}
	}
	pool.ExecuteAll(tasks)

	if counter.Load() != 16 {
		t.Errorf("counter = %d, want 16", counter.Load())
	}
}

// =============================================================================
// Panic Propagation Tests
// =============================================================================

func TestWorkerPool_ExecuteAll_Panic(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var finished atomic.Int64
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(int) {
			if i == 7 {
				panic("task 7 failed")
			}
			finished.Add(1)
		}
	}

	func() {
		defer func() {
			r := recover()
			s, _ := r.(string)
			if !strings.Contains(s, "task 7 failed") {
				t.Errorf("recovered %v, want the task panic", r)
			}
		}()
		pool.ExecuteAll(tasks)
	}()

	if finished.Load() != 19 {
		t.Errorf("finished = %d, want 19", finished.Load())
	}

	// The pool survives a panicking task.
	var after atomic.Int64
	pool.ExecuteAll([]Task{func(int) { after.Add(1) }})
	if after.Load() != 1 {
		t.Error("pool unusable after panic")
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close()")
	}

	// Double close is safe.
	pool.Close()
}

func TestWorkerPool_ExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()

	var workers []int
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = func(w int) {
			workers = append(workers, w)
		}
	}
	pool.ExecuteAll(tasks)

	if len(workers) != 5 {
		t.Fatalf("ran %d tasks after Close, want 5", len(workers))
	}
	for _, w := range workers {
		if w != 0 {
			t.Errorf("inline task ran as worker %d, want 0", w)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkWorkerPool_ExecuteAll(b *testing.B) {
	pool := NewWorkerPool(runtime.GOMAXPROCS(0))
	defer pool.Close()

	var sink atomic.Int64
	tasks := make([]Task, 256)
	for i := range tasks {
		tasks[i] = func(int) { sink.Add(1) }
	}

	b.ReportAllocs()
	for b.Loop() {
		pool.ExecuteAll(tasks)
	}
}
