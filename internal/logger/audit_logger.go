package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRunPersisted logs a projection run written to storage.
func (al *AuditLogger) LogRunPersisted(runID string, projections int, completedAt time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":       runID,
		"projections":  projections,
		"completed_at": completedAt.Unix(),
	}).Info("Projection run persisted")
}

// LogScheduledRun logs the outcome of a cron-triggered projection run.
func (al *AuditLogger) LogScheduledRun(runID string, duration time.Duration, err error) {
	entry := al.WithFields(logrus.Fields{
		"run_id":      runID,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Scheduled projection run failed")
		return
	}
	entry.Info("Scheduled projection run completed")
}

// LogParameterOverride logs a simulation or classifier knob changed from its default.
func (al *AuditLogger) LogParameterOverride(parameterName string, defaultValue, value interface{}) {
	al.WithFields(logrus.Fields{
		"parameter_name": parameterName,
		"default_value":  defaultValue,
		"value":          value,
	}).Info("Parameter overridden")
}
