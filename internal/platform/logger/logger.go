package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a zap logger for the given run mode ("prod"/"production"
// selects the JSON production config, anything else the development one).
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
