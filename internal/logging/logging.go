// Package logging builds the zap loggers used by the everyplayer CLI.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to w. Verbose loggers use the development
// console encoding at Debug level; otherwise entries are JSON at Info level.
func New(w io.Writer, verbose bool) *zap.Logger {
	var (
		enc   zapcore.Encoder
		level zapcore.Level
		opts  []zap.Option
	)
	if verbose {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zapcore.DebugLevel
		opts = append(opts, zap.Development(), zap.AddCaller())
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		level = zapcore.InfoLevel
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, opts...)
}
