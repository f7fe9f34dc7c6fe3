package logging

import (
	"QuorumKV/internal/platform/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const develMode = "devel"

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, err
		}
	}
	var zc zap.Config
	if cfg.DeploymentMode == develMode {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("node", cfg.SelfUrl)), nil
}
