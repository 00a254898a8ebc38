// README: Structured field helpers re-exported from zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Field = zapcore.Field

var (
	Int      = zap.Int
	Int64    = zap.Int64
	String   = zap.String
	Stringer = zap.Stringer
	Duration = zap.Duration
	Error    = zap.Error
	Any      = zap.Any
)
