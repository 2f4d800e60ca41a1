package linear

// Option is a function that configures ElasticNet
type Option func(*ElasticNet)

// WithL1 sets the L1 penalty strength
func WithL1(l1 float64) Option {
	return func(e *ElasticNet) {
		e.l1 = l1
	}
}

// WithL2 sets the L2 penalty strength
func WithL2(l2 float64) Option {
	return func(e *ElasticNet) {
		e.l2 = l2
	}
}

// WithTol sets the tolerance on the largest coefficient change per sweep
func WithTol(tol float64) Option {
	return func(e *ElasticNet) {
		e.tol = tol
	}
}

// WithMaxIter sets the maximum number of coordinate descent sweeps per target
func WithMaxIter(n int) Option {
	return func(e *ElasticNet) {
		e.maxIter = n
	}
}

// WithNJobs sets the number of parallel jobs across targets
func WithNJobs(n int) Option {
	return func(e *ElasticNet) {
		e.nJobs = n
	}
}
