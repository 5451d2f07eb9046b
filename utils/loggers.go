package utils

import (
	"go.uber.org/zap"
)

// InitLogger installs the process-wide logger behind zap.L(): production
// JSON config, development console config otherwise.
func InitLogger(env string) error {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
