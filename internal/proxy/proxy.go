// Package proxy decorates the service operations with argument checks,
// structured logging and duration metrics. Results and errors of the
// wrapped service pass through unchanged.
package proxy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/monitoring"
)

type base struct {
	module   string
	recorder monitoring.Recorder
	logger   *logrus.Logger
}

func observe[T any](b *base, operation string, fields logrus.Fields, call func() (T, error)) (T, error) {
	start := time.Now()
	result, err := call()
	elapsed := time.Since(start)

	b.recorder.Record(b.module, operation, elapsed, err == nil)

	entry := b.logger.WithFields(fields).WithFields(logrus.Fields{
		"module":      b.module,
		"operation":   operation,
		"duration_ms": float64(elapsed) / float64(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Warn("Operation failed")
	} else {
		entry.Debug("Operation completed")
	}
	return result, err
}

// reject records a call refused before it reached the service.
func reject[T any](b *base, operation string, err error) (T, error) {
	var zero T
	b.recorder.Record(b.module, operation, 0, false)
	b.logger.WithFields(logrus.Fields{
		"module":    b.module,
		"operation": operation,
	}).WithError(err).Warn("Invalid arguments")
	return zero, err
}

func requireID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s is required", model.ErrInvalidInput, name)
	}
	return nil
}

type namedID struct {
	name string
	id   uuid.UUID
}

// requireIDs reports the first missing id in argument order.
func requireIDs(ids ...namedID) error {
	for _, n := range ids {
		if err := requireID(n.name, n.id); err != nil {
			return err
		}
	}
	return nil
}
