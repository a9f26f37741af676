package drawbatch

import "testing"

func TestDefaultCompilerOptions(t *testing.T) {
	o := defaultCompilerOptions()
	if o.pruneEmpty {
		t.Error("pruneEmpty should default to false")
	}
	if o.workers != 0 {
		t.Errorf("workers = %d, want 0", o.workers)
	}
	if o.initialCapacity != 1024 {
		t.Errorf("initialCapacity = %d, want 1024", o.initialCapacity)
	}
}

func TestCompilerOptions(t *testing.T) {
	pool := NewMergeBufferPool()
	c := NewCompiler(
		WithPruneEmpty(true),
		WithWorkers(3),
		WithMergePool(pool),
		WithInitialCapacity(16),
	)
	defer c.Close()

	if !c.opts.pruneEmpty {
		t.Error("WithPruneEmpty not applied")
	}
	if c.opts.workers != 3 {
		t.Errorf("workers = %d, want 3", c.opts.workers)
	}
	if c.mpool != pool {
		t.Error("WithMergePool not applied")
	}
	if cap(c.pending) != 16 {
		t.Errorf("pending capacity = %d, want 16", cap(c.pending))
	}
}

func TestWithInitialCapacity_IgnoresNonPositive(t *testing.T) {
	c := NewCompiler(WithInitialCapacity(-1))
	if cap(c.pending) != 1024 {
		t.Errorf("pending capacity = %d, want 1024", cap(c.pending))
	}
}

func TestCompiler_WorkersOption(t *testing.T) {
	c := NewCompiler(WithWorkers(3))
	defer c.Close()
	c.Enqueue(Insert(1, testKey, quad(3, 3)))
	c.FlushParallel()
	if c.pool.Workers() != 3 {
		t.Errorf("pool workers = %d, want 3", c.pool.Workers())
	}
}
