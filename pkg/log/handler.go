package log

import (
	"context"
	"log/slog"

	crdb "github.com/cockroachdb/errors"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// ErrorContextHandler is a slog handler that expands the "error" attribute of
// a record. It adds the cockroachdb/errors stack trace and, for the engine's
// typed errors, the position of the failure: the cross-validation fold, the
// batch and its first row, or the offending row.
type ErrorContextHandler struct {
	next slog.Handler
}

// WrapByErrorContextHandler wraps next with error expansion.
func WrapByErrorContextHandler(next slog.Handler) slog.Handler {
	return &ErrorContextHandler{next: next}
}

func (h *ErrorContextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *ErrorContextHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		found, _ = attr.Value.Any().(error)
		return false
	})
	if found != nil {
		r.AddAttrs(errorContext(found)...)
	}
	return h.next.Handle(ctx, r)
}

func (h *ErrorContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrorContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ErrorContextHandler) WithGroup(g string) slog.Handler {
	return &ErrorContextHandler{next: h.next.WithGroup(g)}
}

// errorContext lists the attributes derived from err, outermost first.
func errorContext(err error) []slog.Attr {
	var attrs []slog.Attr
	if details := crdb.GetSafeDetails(err).SafeDetails; len(details) > 0 && details[0] != "" {
		attrs = append(attrs, slog.String(StacktraceAttrKey, details[0]))
	}

	var fold *errors.FoldError
	if errors.As(err, &fold) {
		attrs = append(attrs, slog.Int(FoldKey, fold.Fold))
	}
	var chunk *errors.ChunkError
	if errors.As(err, &chunk) {
		attrs = append(attrs, slog.Int(BatchIndexKey, chunk.Chunk), slog.Int(BatchStartKey, chunk.Start))
	}

	var malformed *errors.MalformedProbabilityError
	var labelRange *errors.LabelRangeError
	switch {
	case errors.As(err, &malformed):
		attrs = append(attrs, slog.Int(RowKey, malformed.Index))
	case errors.As(err, &labelRange) && labelRange.Index >= 0:
		attrs = append(attrs, slog.Int(RowKey, labelRange.Index))
	case errors.As(err, &labelRange):
		attrs = append(attrs, slog.Int(ClassKey, labelRange.Label))
	}
	return attrs
}
