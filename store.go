package gorelay

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type kindLoader func(ctx context.Context, db *gorm.DB, ids []ID) (map[ID]Entity, error)

// GORMStore is an EntityStore backed by gorm models. Every kind is mapped to
// a model type with RegisterKind.
type GORMStore struct {
	db    *gorm.DB
	kinds map[string]kindLoader
}

func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:    db,
		kinds: make(map[string]kindLoader),
	}
}

// RegisterKind maps kind to the model T, loaded by idColumn. *T must
// implement Entity.
//
// Usage:
//
//	gorelay.RegisterKind[social.User](store, "user", "uid")
func RegisterKind[T any, PT interface {
	*T
	Entity
}](s *GORMStore, kind string, idColumn string) *GORMStore {
	s.kinds[kind] = func(ctx context.Context, db *gorm.DB, ids []ID) (map[ID]Entity, error) {
		var rows []T
		err := db.WithContext(ctx).Where(fmt.Sprintf("%s IN ?", idColumn), ids).Find(&rows).Error
		if err != nil {
			return nil, err
		}

		ret := make(map[ID]Entity, len(rows))
		for i := range rows {
			entity := PT(&rows[i])
			ret[entity.EntityID()] = entity
		}

		return ret, nil
	}

	return s
}

// HasKind reports whether kind has been registered.
func (s *GORMStore) HasKind(kind string) bool {
	_, ok := s.kinds[kind]
	return ok
}

// LoadMultiple - implements EntityStore.
func (s *GORMStore) LoadMultiple(ctx context.Context, kind string, ids []ID) (map[ID]Entity, error) {
	load, ok := s.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind '%s'", kind)
	}

	if len(ids) == 0 {
		return map[ID]Entity{}, nil
	}

	return load(ctx, s.db, ids)
}

var _ EntityStore = (*GORMStore)(nil)
