// Package log defines standard attribute keys for label-quality operations.
//
// Using these keys keeps log records from the score engine, the issue
// selector and CleanLearning consistent, so a run can be followed by
// filtering on "ml.operation" or "cv.fold".

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of the wrapped classifier.
	// Examples: "LogisticRegression", "CleanLearning"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// ParamsKey carries the hyperparameters of the wrapped classifier.
	ParamsKey = "model.params"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "rank", "filter", "classification"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of examples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of classes K.
	ClassesKey = "data.classes"

	// BatchSizeKey indicates the size of processing batches.
	BatchSizeKey = "data.batch_size"

	// BatchIndexKey identifies one batch of the streaming finder.
	BatchIndexKey = "batch.index"

	// BatchStartKey is the first global row of a batch.
	BatchStartKey = "batch.start"

	// RowKey is the index of a single example.
	RowKey = "data.row"

	// ClassKey is a single class index.
	ClassKey = "data.class"
)

// Label issue results
const (
	// IssuesCountKey records how many examples were flagged.
	IssuesCountKey = "issues.count"

	// IssuesEstimatedKey records the confident-joint estimate of label errors.
	IssuesEstimatedKey = "issues.estimated"

	// FilterByKey records the active filter policy.
	FilterByKey = "issues.filter_by"

	// RankedByKey records the ranking method.
	RankedByKey = "issues.ranked_by"

	// CutoffKey records the score cutoff used by threshold rules.
	CutoffKey = "issues.cutoff"

	// ThresholdRuleKey records which cutoff rule was active.
	ThresholdRuleKey = "issues.threshold_rule"
)

// Performance and training
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// LossKey records a loss value.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration of an iterative solver.
	IterationKey = "training.iteration"

	// FoldKey identifies a cross-validation fold.
	FoldKey = "cv.fold"

	// FoldsKey records the number of cross-validation folds.
	FoldsKey = "cv.n_folds"

	// WorkersKey records the number of parallel workers.
	WorkersKey = "infra.workers"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit             = "fit"
	OperationPredict         = "predict"
	OperationPredictProba    = "predict_proba"
	OperationScore           = "score"
	OperationFindLabelIssues = "find_label_issues"
	OperationCrossValidate   = "cross_validate"
	OperationMergeRare       = "merge_rare_classes"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
	PhaseStreaming  = "streaming"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorMalformedProbs    = "MALFORMED_PROBABILITIES"
	ErrorLabelRange        = "LABEL_RANGE"
	ErrorIncompatibleModel = "INCOMPATIBLE_MODEL"
	ErrorEmptyClass        = "EMPTY_CLASS_AFTER_FILTERING"
	ErrorFoldFailed        = "FOLD_FAILED"
	ErrorChunkFailed       = "CHUNK_FAILED"
)
