package logger

import (
	"time"

	"go.uber.org/zap/zapcore"
)

const ansiReset = "\033[0m"

// levelColors maps each level to the ANSI prefix used on a terminal.
var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  "\033[36m",
	zapcore.InfoLevel:   "\033[32m",
	zapcore.WarnLevel:   "\033[33m",
	zapcore.ErrorLevel:  "\033[31m",
	zapcore.DPanicLevel: "\033[1;31m",
	zapcore.PanicLevel:  "\033[1;31m",
	zapcore.FatalLevel:  "\033[1;31m",
}

// PrettyEncoder is the coloured console encoder used on stdout.
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(consoleConfig(true))
}

// plainEncoder renders the same layout without escape codes, for files and
// the dashboard ring.
func plainEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(consoleConfig(false))
}

func consoleConfig(color bool) zapcore.EncoderConfig {
	levelEnc := bracketLevel
	if color {
		levelEnc = colorBracketLevel
	}
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEnc,
		EncodeTime:     zapcore.TimeEncoderOfLayout(time.TimeOnly),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

func bracketLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func colorBracketLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	c, ok := levelColors[level]
	if !ok {
		bracketLevel(level, enc)
		return
	}
	enc.AppendString(c + "[" + level.CapitalString() + "]" + ansiReset)
}

// ShortenAddress renders a long token identifier as "abcd...wxyz".
func ShortenAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
