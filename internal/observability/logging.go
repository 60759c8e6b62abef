// Package observability provides the structured logging and metrics
// the orchestrator and DAL emit around each step of a calculation run.
package observability

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the module's standard JSON-formatted logger,
// grounded on the teacher pack's GetLogger() singleton pattern but
// returned per-call rather than shared as a package-level global, so
// tests can each get their own instance.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	log.SetOutput(os.Stdout)
	return log
}

// LogError records a failed operation with the module/function/context
// fields the rest of the retrieved pack uses for its error logging.
// logger takes logrus.FieldLogger rather than *logrus.Logger so callers
// can pass a run-scoped *logrus.Entry (e.g. one carrying run_id) and
// keep that correlation id on the error line.
func LogError(logger logrus.FieldLogger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
