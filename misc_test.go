package gorelay

import (
	"context"
	"fmt"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

var sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

type tUser struct {
	UID     int64
	Name    string
	Created int64
}

func (u *tUser) EntityID() ID { return u.UID }

type tComment struct {
	CID int64
}

func (c *tComment) EntityID() ID { return c.CID }

type storeCall struct {
	kind string
	ids  []ID
}

// fakeStore records every LoadMultiple call.
type fakeStore struct {
	entities map[string]map[ID]Entity
	failures map[string]error
	calls    []storeCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities: make(map[string]map[ID]Entity),
		failures: make(map[string]error),
	}
}

func (s *fakeStore) withUsers(users ...*tUser) *fakeStore {
	if s.entities["user"] == nil {
		s.entities["user"] = make(map[ID]Entity)
	}
	for _, u := range users {
		s.entities["user"][u.UID] = u
	}

	return s
}

func (s *fakeStore) withComments(ids ...ID) *fakeStore {
	if s.entities["comment"] == nil {
		s.entities["comment"] = make(map[ID]Entity)
	}
	for _, id := range ids {
		s.entities["comment"][id] = &tComment{CID: id}
	}

	return s
}

func (s *fakeStore) LoadMultiple(_ context.Context, kind string, ids []ID) (map[ID]Entity, error) {
	s.calls = append(s.calls, storeCall{kind: kind, ids: append([]ID(nil), ids...)})

	if err := s.failures[kind]; err != nil {
		return nil, err
	}

	ret := make(map[ID]Entity, len(ids))
	for _, id := range ids {
		if entity, ok := s.entities[kind][id]; ok {
			ret[id] = entity
		}
	}

	return ret, nil
}

func (s *fakeStore) callsFor(kind string) []storeCall {
	return lo.Filter(s.calls, func(item storeCall, _ int) bool {
		return item.kind == kind
	})
}

var tUserSortKeys = SortKeys{
	"CREATED_AT": "created",
	"NAME":       "name",
}

// tUsersHelper pages over the "users" table named 'lol'.
type tUsersHelper struct {
	sortKey   string
	db        *gorm.DB
	loader    *Loader
	aggregate string
	group     bool
}

func (h *tUsersHelper) Kind() string    { return "user" }
func (h *tUsersHelper) SortKey() string { return h.sortKey }
func (h *tUsersHelper) IDField() string { return "uid" }

func (h *tUsersHelper) BaseQuery(context.Context) (*gorm.DB, error) {
	query := h.db.Table("users").Where("name = 'lol'")
	if h.group {
		query = query.Group("uid")
	}

	return query, nil
}

func (h *tUsersHelper) SortField() (string, error) {
	if h.aggregate != "" {
		return "cid", nil
	}

	return tUserSortKeys.Field(h.sortKey)
}

func (h *tUsersHelper) AggregateSortFunction() string {
	return h.aggregate
}

func (h *tUsersHelper) CursorFor(raw string) *Cursor {
	return CursorFor(raw, h.sortKey, "user")
}

func (h *tUsersHelper) LoadEdges(ids []ID) *Deferred[[]Edge] {
	return LoadEdges[*tUser](h.loader, "user", h.sortKey, ids, tUserSortValue)
}

func tUserSortValue(u *tUser, sortKey string) (any, error) {
	switch sortKey {
	case "CREATED_AT":
		return u.Created, nil
	case "NAME":
		return u.Name, nil
	case "COMMENTS":
		return int64(0), nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedSortKey, sortKey)
	}
}

var _ QueryHelper = (*tUsersHelper)(nil)
