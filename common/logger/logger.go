package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production gets JSON with an ISO8601
// timestamp; anything else gets the colored development encoder. When sink
// is non-nil every entry is also written to it as JSON, which is how logs
// reach CloudWatch.
func New(env string, sink io.Writer) (*zap.Logger, error) {
	return newWithConsole(env, os.Stdout, sink)
}

func newWithConsole(env string, console io.Writer, sink io.Writer) (*zap.Logger, error) {
	config := configFor(env)

	if sink == nil && console == os.Stdout {
		l, err := config.Build()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		return l, nil
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder(env, config.EncoderConfig), zapcore.AddSync(console), level),
	}
	if sink != nil {
		jsonCfg := config.EncoderConfig
		jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(sink), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func configFor(env string) zap.Config {
	if env == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return config
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config
}

func consoleEncoder(env string, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if env == "production" {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}
