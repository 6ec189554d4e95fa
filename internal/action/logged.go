package action

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Logged logs the start, duration and outcome of every dispatch.
type Logged struct {
	next Executor
	log  logrus.FieldLogger
}

// NewLogged wraps next with logging to log.
func NewLogged(next Executor, log logrus.FieldLogger) *Logged {
	return &Logged{next: next, log: log}
}

// Execute delegates and logs the outcome.
func (l *Logged) Execute(ctx context.Context, req Request) (*Result, error) {
	entry := l.log.WithFields(logrus.Fields{
		"capability": req.Capability,
		"privileged": req.Privileged,
	})
	if req.Model != "" {
		entry = entry.WithField("model", req.Model)
	}
	entry.Debug("dispatching action")

	start := time.Now()
	res, err := l.next.Execute(ctx, req)
	entry = entry.WithField("duration", time.Since(start).Round(time.Millisecond))

	if err != nil {
		kind, _ := KindOf(err)
		entry.WithField("kind", kind).WithError(err).Warn("action failed")
		return res, err
	}
	entry.Debug("action completed")
	return res, nil
}
