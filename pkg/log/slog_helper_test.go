package log

import "log/slog"

func logSlogError(msg string, err error) {
	slog.Error(msg, ErrAttr(err))
}
