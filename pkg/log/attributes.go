// Standard attribute keys. Using the same keys everywhere keeps training
// runs and dashboard requests greppable in the JSON log stream.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator, e.g. "Linear Regression".
	ModelNameKey = "model.name"

	// BundleIDKey identifies a persisted model bundle.
	BundleIDKey = "model.bundle_id"

	// OperationKey is the operation being performed: fit, predict, score, ...
	OperationKey = "ml.operation"

	// ComponentKey is the package or subsystem emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase: training, validation, inference.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnsKey  = "data.columns"
	PathKey     = "data.path"
	TargetKey   = "data.target"
)

// Performance and evaluation.
const (
	DurationMsKey = "perf.duration_ms"
	R2ScoreKey    = "metrics.r2_score"
	RMSEKey       = "metrics.rmse"
	MAEKey        = "metrics.mae"
	CVMeanKey     = "metrics.cv_r2_mean"
	CVStdKey      = "metrics.cv_r2_std"
	FoldKey       = "cv.fold"
)

// Configuration.
const (
	RandomSeedKey = "config.random_seed"
	TestSizeKey   = "config.test_size"
)

// HTTP.
const (
	HTTPMethodKey = "http.method"
	HTTPPathKey   = "http.path"
	HTTPStatusKey = "http.status"
)

// Error context.
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
	ErrorCodeKey      = "error.code"
)

// Standard values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationScore     = "score"
	OperationTransform = "transform"
	OperationLoad      = "load"
	OperationSave      = "save"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
	PhaseInference  = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
