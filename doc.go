// Package cleango finds label errors in classification datasets and trains
// classifiers that are robust to them.
//
// Given a label vector and a matrix of out-of-sample predicted probabilities,
// cleango scores how plausible every given label is, flags the likely label
// issues and ranks them from most to least severe. CleanLearning wraps any
// classifier with Fit, Predict, PredictProba and Clone, estimates the
// probabilities itself by cross-validation and retrains on the cleaned data.
//
// # Installation
//
//	go get github.com/YuminosukeSato/cleango
//
// # Quick Start
//
// Flag label issues from probabilities you already have:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/cleango/filter"
//	    "github.com/YuminosukeSato/cleango/rank"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    labels := []int{0, 0, 1, 1}
//	    probs := mat.NewDense(4, 2, []float64{
//	        0.9, 0.1,
//	        0.2, 0.8,
//	        0.3, 0.7,
//	        0.1, 0.9,
//	    })
//
//	    issues, err := filter.FindLabelIssues(labels, probs,
//	        filter.WithRankedBy(rank.SelfConfidence))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Ranked issues:", issues.RankedIndices)
//	}
//
// Train on noisy labels:
//
//	clf := linear_model.NewLogisticRegression()
//	cl, err := classification.NewCleanLearning(clf, classification.WithCVNFolds(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cl.Fit(ctx, X, labels, nil); err != nil {
//	    log.Fatal(err)
//	}
//	predictions, err := cl.Predict(XTest)
//
// # Packages
//
// The library is organized into several packages:
//
//   - rank: label quality scores (self_confidence, normalized_margin,
//     confidence_weighted_entropy) and issue ordering
//   - count: per-class thresholds, the confident joint and noise estimates
//   - filter: issue policies, in memory and batched over a BatchSource
//   - classification: CleanLearning
//   - dataset: validation, rare-class merging and batch sources
//   - storage: memory-mapped array files and CSV import
//   - datalab: registry of named issue checks and their summary
//   - sklearn/model_selection: K-fold splitters and cross-validated probabilities
//   - sklearn/linear_model: softmax logistic regression
//   - preprocessing: feature standardization
//   - metrics: accuracy, confusion matrix, log loss
//   - core/model: classifier capability interfaces
//   - core/parallel: parallel processing utilities
//
// # Large datasets
//
// filter.FindLabelIssuesBatched reads labels and probabilities in batches
// from any dataset.BatchSource, such as two storage array files, and keeps
// only O(K²) state plus its result across batches:
//
//	labels, _ := storage.Open("labels.bin")
//	probs, _ := storage.Open("pred_probs.bin")
//	src, _ := storage.Source(labels, probs)
//	ranked, err := filter.FindLabelIssuesBatched(ctx, src, 10000, 4)
//
// The cleango command exposes the same operations on CSV and array files.
package cleango
