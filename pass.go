package gorelay

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Pass is one resolution pass: the unit of work answering one incoming
// query. It owns the Loader shared by every connection resolved within the
// pass. Build a new Pass per query; never share one between queries or
// goroutines.
type Pass struct {
	id      string
	loader  *Loader
	logger  logrus.FieldLogger
	metrics *Metrics
}

func NewPass(store EntityStore) *Pass {
	id := uuid.NewString()
	logger := logrus.StandardLogger().WithField("pass_id", id)

	return &Pass{
		id:     id,
		loader: NewLoader(store).WithLogger(logger),
		logger: logger,
	}
}

// WithLogger replaces the pass logger. The pass id is added as a field.
func (p *Pass) WithLogger(logger logrus.FieldLogger) *Pass {
	if logger == nil {
		return p
	}

	p.logger = logger.WithField("pass_id", p.id)
	p.loader.WithLogger(p.logger)

	return p
}

// WithMetrics sets the collectors used by the pass loader and connections.
func (p *Pass) WithMetrics(metrics *Metrics) *Pass {
	p.metrics = metrics
	p.loader.WithMetrics(metrics)

	return p
}

func (p *Pass) ID() string {
	return p.id
}

func (p *Pass) Loader() *Loader {
	return p.loader
}

func (p *Pass) Logger() logrus.FieldLogger {
	return p.logger
}

func (p *Pass) Metrics() *Metrics {
	return p.metrics
}

// Connection builds a connection over helper that logs and records metrics
// the same way as the pass.
func (p *Pass) Connection(helper QueryHelper) *Connection {
	return NewConnection(helper).
		WithLogger(p.logger).
		WithMetrics(p.metrics)
}
