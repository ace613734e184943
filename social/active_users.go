package social

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

// SortKeyCommentCount orders users by the number of comments they posted.
const SortKeyCommentCount = "COMMENT_COUNT"

var activeUserSortKeys = gorelay.SortKeys{
	"CREATED_AT":        "users.created",
	SortKeyCommentCount: "comments.cid",
}

// ActiveUsersQueryHelper loads users, optionally ranked by their comment
// count. The count is an aggregate, so its cursor predicate is applied to the
// grouped rows.
type ActiveUsersQueryHelper struct {
	sortKey string
	db      *gorm.DB
	loader  *gorelay.Loader
}

func NewActiveUsersQueryHelper(sortKey string, db *gorm.DB, loader *gorelay.Loader) *ActiveUsersQueryHelper {
	return &ActiveUsersQueryHelper{
		sortKey: sortKey,
		db:      db,
		loader:  loader,
	}
}

func (h *ActiveUsersQueryHelper) Kind() string {
	return KindUser
}

func (h *ActiveUsersQueryHelper) SortKey() string {
	return h.sortKey
}

func (h *ActiveUsersQueryHelper) BaseQuery(ctx context.Context) (*gorm.DB, error) {
	query := h.db.WithContext(ctx).Model(&User{})
	if h.sortKey == SortKeyCommentCount {
		query = query.
			Joins("LEFT JOIN comments ON comments.uid = users.uid").
			Group("users.uid")
	}

	return query, nil
}

func (h *ActiveUsersQueryHelper) IDField() string {
	return "users.uid"
}

func (h *ActiveUsersQueryHelper) SortField() (string, error) {
	return activeUserSortKeys.Field(h.sortKey)
}

// AggregateSortFunction - implements gorelay.AggregateSorter.
func (h *ActiveUsersQueryHelper) AggregateSortFunction() string {
	if h.sortKey == SortKeyCommentCount {
		return "COUNT"
	}

	return ""
}

func (h *ActiveUsersQueryHelper) CursorFor(raw string) *gorelay.Cursor {
	return gorelay.CursorFor(raw, h.sortKey, KindUser)
}

// LoadEdges - implements gorelay.QueryHelper. The ids are registered with the
// loader right away; comment counts are read when the edges are awaited.
func (h *ActiveUsersQueryHelper) LoadEdges(ids []gorelay.ID) *gorelay.Deferred[[]gorelay.Edge] {
	if err := activeUserSortKeys.Validate(h.sortKey); err != nil {
		return gorelay.Rejected[[]gorelay.Edge](err)
	}

	if h.sortKey != SortKeyCommentCount {
		return gorelay.LoadEdges[*User](h.loader, KindUser, h.sortKey, ids, func(user *User, _ string) (any, error) {
			return user.Created, nil
		})
	}

	counts := make(map[gorelay.ID]int64, len(ids))
	edges := gorelay.LoadEdges[*User](h.loader, KindUser, h.sortKey, ids, func(user *User, _ string) (any, error) {
		return counts[user.UID], nil
	})

	loadCounts := gorelay.Defer(func(ctx context.Context) (map[gorelay.ID]int64, error) {
		if len(ids) == 0 {
			return counts, nil
		}

		var rows []struct {
			UID   int64 `gorm:"column:uid"`
			Total int64 `gorm:"column:total"`
		}
		err := h.db.WithContext(ctx).
			Model(&Comment{}).
			Select("uid, COUNT(cid) AS total").
			Where("uid IN ?", ids).
			Group("uid").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("%w: cannot count comments: %w", gorelay.ErrFetch, err)
		}

		for _, row := range rows {
			counts[row.UID] = row.Total
		}

		return counts, nil
	})

	return gorelay.Then(loadCounts, func(ctx context.Context, _ map[gorelay.ID]int64) ([]gorelay.Edge, error) {
		return edges.Await(ctx)
	})
}

var (
	_ gorelay.QueryHelper     = (*ActiveUsersQueryHelper)(nil)
	_ gorelay.AggregateSorter = (*ActiveUsersQueryHelper)(nil)
)
