package runtime

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CreateLogger creates a logger that can be passed around through the
// environment. Loggers can be derived from the one returned by calling
// WithField or WithFields and specifying additional fields that the
// package would like.
func CreateLogger(level string) (*logrus.Logger, error) {
	if level == "" {
		level = "warn"
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unable to parse logging level: %s", level)
	}

	logger := logrus.New()
	logger.Level = lvl
	return logger, nil
}
