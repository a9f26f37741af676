package drawbatch

// CompilerOption configures a Compiler during creation.
// Use functional options to customize Compiler behavior.
//
// Example:
//
//	// Default: sequential flush, empty batches retained
//	c := drawbatch.NewCompiler()
//
//	// Parallel flush on 4 workers, empty batches dropped
//	c := drawbatch.NewCompiler(drawbatch.WithWorkers(4), drawbatch.WithPruneEmpty(true))
type CompilerOption func(*compilerOptions)

// compilerOptions holds optional configuration for Compiler creation.
type compilerOptions struct {
	pruneEmpty      bool
	workers         int
	mergePool       *MergeBufferPool
	initialCapacity int
}

// defaultCompilerOptions returns the default compiler options.
func defaultCompilerOptions() compilerOptions {
	return compilerOptions{
		pruneEmpty:      false,
		workers:         0, // FlushParallel starts GOMAXPROCS workers on first use
		mergePool:       nil,
		initialCapacity: 1024,
	}
}

// WithPruneEmpty drops batches from the compiler once their last entry has
// been removed. Retained empty batches keep their storage for reuse.
func WithPruneEmpty(prune bool) CompilerOption {
	return func(o *compilerOptions) {
		o.pruneEmpty = prune
	}
}

// WithWorkers sets the number of goroutines used by FlushParallel.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) CompilerOption {
	return func(o *compilerOptions) {
		o.workers = n
	}
}

// WithMergePool shares a MergeBufferPool between compilers.
func WithMergePool(p *MergeBufferPool) CompilerOption {
	return func(o *compilerOptions) {
		o.mergePool = p
	}
}

// WithInitialCapacity sets the initial capacity of the pending queue.
func WithInitialCapacity(n int) CompilerOption {
	return func(o *compilerOptions) {
		if n > 0 {
			o.initialCapacity = n
		}
	}
}
