// Package logging builds the process-wide logrus logger from config.
package logging

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout at the given level. format is "json" or "text".
func New(level, format string) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(os.Stdout)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger.SetLevel(lvl)

	switch format {
	case "", "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return logger, nil
}
