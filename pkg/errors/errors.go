// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// ラベル品質エンジンのエラー分類（確率行列の不正、ラベル範囲外、モデル非互換など）を
// cockroachdb/errors の上に構造化して提供します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("cleango-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `PredictProba` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("cleango: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/classes
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("cleango: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "columns"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cleango: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("cleango: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cleango: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("cleango: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	ラベル品質エンジンのエラー型
//
// ===========================================================================

// MalformedProbabilityError is returned when a predicted-probability row has
// the wrong width, contains negative or NaN entries, or does not sum to 1
// within tolerance. Index is the offending row.
type MalformedProbabilityError struct {
	Index    int
	Sum      float64
	Width    int
	Expected int
	Reason   string
}

func (e *MalformedProbabilityError) Error() string {
	if e.Width != e.Expected {
		return fmt.Sprintf("cleango: malformed probability row %d: has %d columns, expected %d", e.Index, e.Width, e.Expected)
	}
	return fmt.Sprintf("cleango: malformed probability row %d: %s (sum=%.8g)", e.Index, e.Reason, e.Sum)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MalformedProbabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("index", e.Index).
		Float64("sum", e.Sum).
		Int("width", e.Width).
		Int("expected", e.Expected).
		Str("reason", e.Reason).
		Str("type", "MalformedProbabilityError")
}

// NewMalformedProbabilityError creates a MalformedProbabilityError for a row
// with the right width but invalid values.
func NewMalformedProbabilityError(index int, sum float64, width int, reason string) error {
	return errors.WithStack(&MalformedProbabilityError{
		Index: index, Sum: sum, Width: width, Expected: width, Reason: reason,
	})
}

// NewProbabilityWidthError creates a MalformedProbabilityError for a row whose
// length differs from the number of classes.
func NewProbabilityWidthError(index, width, expected int) error {
	return errors.WithStack(&MalformedProbabilityError{
		Index: index, Width: width, Expected: expected, Reason: "row length mismatch",
	})
}

// LabelRangeError is returned when a label falls outside [0, K-1], or when a
// class has no members and a per-class statistic is therefore undefined.
// Index is -1 when the error concerns a class rather than one example.
type LabelRangeError struct {
	Index      int
	Label      int
	NumClasses int
	Reason     string
}

func (e *LabelRangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("cleango: class %d of %d: %s", e.Label, e.NumClasses, e.Reason)
	}
	return fmt.Sprintf("cleango: label %d at index %d is outside [0, %d]: %s", e.Label, e.Index, e.NumClasses-1, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *LabelRangeError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("index", e.Index).
		Int("label", e.Label).
		Int("num_classes", e.NumClasses).
		Str("reason", e.Reason).
		Str("type", "LabelRangeError")
}

// NewLabelRangeError creates a LabelRangeError for an out-of-range label.
func NewLabelRangeError(index, label, numClasses int) error {
	return errors.WithStack(&LabelRangeError{
		Index: index, Label: label, NumClasses: numClasses, Reason: "label out of range",
	})
}

// NewEmptyClassError creates a LabelRangeError for a class without members.
func NewEmptyClassError(class, numClasses int, reason string) error {
	return errors.WithStack(&LabelRangeError{
		Index: -1, Label: class, NumClasses: numClasses, Reason: reason,
	})
}

// IncompatibleModelError is returned when a wrapped model lacks part of the
// capability set required by CleanLearning.
type IncompatibleModelError struct {
	Model   string
	Missing []string
}

func (e *IncompatibleModelError) Error() string {
	return fmt.Sprintf("cleango: model %s is incompatible: missing %s", e.Model, strings.Join(e.Missing, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IncompatibleModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Model).
		Strs("missing", e.Missing).
		Str("type", "IncompatibleModelError")
}

// NewIncompatibleModelError creates an IncompatibleModelError.
func NewIncompatibleModelError(model string, missing []string) error {
	return errors.WithStack(&IncompatibleModelError{Model: model, Missing: missing})
}

// EmptyClassAfterFilteringError reports that dropping label issues would
// remove every example of Class. It is recoverable: CleanLearning keeps the
// most confident example unless strict retention is requested.
type EmptyClassAfterFilteringError struct {
	Class   int
	Removed int
}

func (e *EmptyClassAfterFilteringError) Error() string {
	return fmt.Sprintf("cleango: removing %d label issues would empty class %d", e.Removed, e.Class)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyClassAfterFilteringError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("class", e.Class).
		Int("removed", e.Removed).
		Str("type", "EmptyClassAfterFilteringError")
}

// NewEmptyClassAfterFilteringError creates an EmptyClassAfterFilteringError.
func NewEmptyClassAfterFilteringError(class, removed int) error {
	return errors.WithStack(&EmptyClassAfterFilteringError{Class: class, Removed: removed})
}

// FoldError attaches the cross-validation fold index to a failure.
type FoldError struct {
	Fold int
	Err  error
}

func (e *FoldError) Error() string {
	return fmt.Sprintf("cleango: cross-validation fold %d failed: %v", e.Fold, e.Err)
}

func (e *FoldError) Unwrap() error {
	return e.Err
}

// NewFoldError wraps err with the fold index.
func NewFoldError(fold int, err error) error {
	return errors.WithStack(&FoldError{Fold: fold, Err: err})
}

// ChunkError attaches the batch index and its row range [Start, End) to a
// failure in the batched label-issue finder.
type ChunkError struct {
	Chunk int
	Start int
	End   int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("cleango: batch %d (rows %d-%d) failed: %v", e.Chunk, e.Start, e.End, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// NewChunkError wraps err with the batch position.
func NewChunkError(chunk, start, end int, err error) error {
	return errors.WithStack(&ChunkError{Chunk: chunk, Start: start, End: end, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	数値計算のエラー型
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	vals := make([]string, 0, len(e.Values))
	for i, v := range e.Values {
		if i >= 5 {
			vals = append(vals, "...")
			break
		}
		vals = append(vals, fmt.Sprintf("%.6g", v))
	}
	return fmt.Sprintf("cleango: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, strings.Join(vals, ", "))
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNoClasses はクラス数が0の確率行列が渡された場合のエラーです。
	ErrNoClasses = New("probability matrix has no columns")
)
