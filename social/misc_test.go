package social

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alp4ka/gorelay"
)

// newSQLiteDB opens a private in-memory database with the social tables.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	return db
}

func create[T any](t *testing.T, db *gorm.DB, rows ...T) {
	t.Helper()

	if len(rows) == 0 {
		return
	}
	require.NoError(t, db.Create(&rows).Error)
}

// countingStore counts the entity store fetches per kind.
type countingStore struct {
	store gorelay.EntityStore
	calls map[string][][]gorelay.ID
}

func newCountingStore(db *gorm.DB) *countingStore {
	return &countingStore{
		store: RegisterKinds(gorelay.NewGORMStore(db)),
		calls: make(map[string][][]gorelay.ID),
	}
}

func (s *countingStore) LoadMultiple(ctx context.Context, kind string, ids []gorelay.ID) (map[gorelay.ID]gorelay.Entity, error) {
	s.calls[kind] = append(s.calls[kind], append([]gorelay.ID(nil), ids...))
	return s.store.LoadMultiple(ctx, kind, ids)
}

func (s *countingStore) total() int {
	n := 0
	for _, calls := range s.calls {
		n += len(calls)
	}

	return n
}

// await resolves a page and fails the test on error.
func await(t *testing.T, page *gorelay.Deferred[*gorelay.Result]) *gorelay.Result {
	t.Helper()

	result, err := page.Await(context.Background())
	require.NoError(t, err)

	return result
}
