package tree

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the depth of the tree. Values <= 0 mean unlimited.
func WithMaxDepth(depth int) Option {
	return func(t *DecisionTreeRegressor) {
		t.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples a node needs to be
// considered for splitting.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) {
		t.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples on each side of a
// split.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) {
		t.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many randomly chosen features are evaluated per
// split. Values <= 0 evaluate every feature.
func WithMaxFeatures(n int) Option {
	return func(t *DecisionTreeRegressor) {
		t.MaxFeatures = n
	}
}

// WithRandomState seeds the feature shuffling.
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) {
		t.RandomState = seed
	}
}
