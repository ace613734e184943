package gorelay

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/Alp4ka/gorelay")

// Entity is anything a connection can return as an edge node.
type Entity interface {
	EntityID() ID
}

// EntityStore loads entities of one kind by id. Ids the store does not know
// are absent from the returned mapping.
type EntityStore interface {
	LoadMultiple(ctx context.Context, kind string, ids []ID) (map[ID]Entity, error)
}

// Loader coalesces the entity loads requested during one resolution pass
// into one fetch per kind.
//
// Requests register ids against the pending batch of their kind. The batch
// is flushed the first time any of its handles is awaited: it fetches the
// union of every id registered so far with a single LoadMultiple call and is
// then discarded. Entities loaded earlier in the pass are kept, so a later
// batch only fetches ids that were never loaded.
//
// A Loader is owned by exactly one pass and is not safe for concurrent use.
type Loader struct {
	store   EntityStore
	pending map[string]*batch
	loaded  map[string]map[ID]Entity
	logger  logrus.FieldLogger
	metrics *Metrics
}

type batch struct {
	kind    string
	ids     []ID
	seen    map[ID]struct{}
	flushed bool
	err     error
}

func NewLoader(store EntityStore) *Loader {
	return &Loader{
		store:   store,
		pending: make(map[string]*batch),
		loaded:  make(map[string]map[ID]Entity),
		logger:  logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for flush diagnostics.
func (l *Loader) WithLogger(logger logrus.FieldLogger) *Loader {
	if logger != nil {
		l.logger = logger
	}

	return l
}

// WithMetrics sets the collectors updated on every fetch.
func (l *Loader) WithMetrics(metrics *Metrics) *Loader {
	l.metrics = metrics
	return l
}

// Request registers ids for kind and returns a handle resolving to the
// requested entities. An empty id list resolves immediately without touching
// the store.
func (l *Loader) Request(kind string, ids []ID) *Deferred[map[ID]Entity] {
	if len(ids) == 0 {
		return Resolved(map[ID]Entity{})
	}

	b, ok := l.pending[kind]
	if !ok {
		b = &batch{kind: kind, seen: make(map[ID]struct{})}
		l.pending[kind] = b
	}
	b.add(ids)

	requested := append([]ID(nil), ids...)

	return Defer(func(ctx context.Context) (map[ID]Entity, error) {
		if err := l.flush(ctx, b); err != nil {
			return nil, err
		}

		loaded := l.loaded[kind]
		ret := make(map[ID]Entity, len(requested))
		for _, id := range requested {
			if entity, ok := loaded[id]; ok {
				ret[id] = entity
			}
		}

		return ret, nil
	})
}

// Pending returns the ids accumulated for kind that have not been flushed.
func (l *Loader) Pending(kind string) []ID {
	b, ok := l.pending[kind]
	if !ok {
		return nil
	}

	return append([]ID(nil), b.ids...)
}

func (l *Loader) flush(ctx context.Context, b *batch) error {
	if b.flushed {
		return b.err
	}

	b.flushed = true
	if l.pending[b.kind] == b {
		delete(l.pending, b.kind)
	}

	loaded, ok := l.loaded[b.kind]
	if !ok {
		loaded = make(map[ID]Entity, len(b.ids))
		l.loaded[b.kind] = loaded
	}

	missing := make([]ID, 0, len(b.ids))
	for _, id := range b.ids {
		if _, ok := loaded[id]; !ok {
			missing = append(missing, id)
		}
	}

	logger := l.logger.WithFields(logrus.Fields{
		"kind":      b.kind,
		"requested": len(b.ids),
		"missing":   len(missing),
	})

	if len(missing) == 0 {
		logger.Debug("entity batch served from pass cache")
		return nil
	}

	ctx, span := tracer.Start(ctx, "gorelay.Loader.flush")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", b.kind),
		attribute.Int("ids", len(missing)),
	)

	entities, err := l.store.LoadMultiple(ctx, b.kind, missing)
	l.metrics.observeFetch(b.kind, len(missing), err)
	if err != nil {
		b.err = fmt.Errorf("%w: cannot load '%s' entities: %w", ErrFetch, b.kind, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Debug("entity batch fetch failed")

		return b.err
	}

	for id, entity := range entities {
		loaded[id] = entity
	}

	logger.WithField("found", len(entities)).Debug("entity batch flushed")

	return nil
}

func (b *batch) add(ids []ID) {
	for _, id := range ids {
		if _, ok := b.seen[id]; ok {
			continue
		}

		b.seen[id] = struct{}{}
		b.ids = append(b.ids, id)
	}
}
