package monitoring

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartReporter logs the registry summary on the given cron schedule. The
// caller stops the returned scheduler on shutdown.
func StartReporter(schedule string, reg *Registry, logger *logrus.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() { LogSummary(reg, logger) })
	if err != nil {
		return nil, fmt.Errorf("invalid metrics schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// LogSummary writes one structured line with the current totals.
func LogSummary(reg *Registry, logger *logrus.Logger) {
	s := reg.Summary()
	logger.WithFields(logrus.Fields{
		"operations":      s.TotalOperations,
		"modules":         s.TotalModules,
		"avg_duration_ms": s.AverageDuration,
		"errors":          s.TotalErrors,
		"error_rate":      s.ErrorRate,
		"tracked_keys":    reg.Len(),
	}).Info("Operation metrics summary")
}
