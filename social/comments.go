package social

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

var commentSortKeys = gorelay.SortKeys{
	"CREATED_AT": "created",
}

// CommentsQueryHelper loads the comments posted on a node.
type CommentsQueryHelper struct {
	sortKey string
	db      *gorm.DB
	loader  *gorelay.Loader
	parent  *Node
}

func NewCommentsQueryHelper(sortKey string, db *gorm.DB, loader *gorelay.Loader, parent *Node) *CommentsQueryHelper {
	return &CommentsQueryHelper{
		sortKey: sortKey,
		db:      db,
		loader:  loader,
		parent:  parent,
	}
}

func (h *CommentsQueryHelper) Kind() string {
	return KindComment
}

func (h *CommentsQueryHelper) SortKey() string {
	return h.sortKey
}

func (h *CommentsQueryHelper) BaseQuery(ctx context.Context) (*gorm.DB, error) {
	if h.parent == nil {
		return nil, fmt.Errorf("comments need a parent node")
	}

	return h.db.WithContext(ctx).Model(&Comment{}).Where("entity_id = ?", h.parent.NID), nil
}

func (h *CommentsQueryHelper) IDField() string {
	return "cid"
}

func (h *CommentsQueryHelper) SortField() (string, error) {
	return commentSortKeys.Field(h.sortKey)
}

func (h *CommentsQueryHelper) CursorFor(raw string) *gorelay.Cursor {
	return gorelay.CursorFor(raw, h.sortKey, KindComment)
}

func (h *CommentsQueryHelper) LoadEdges(ids []gorelay.ID) *gorelay.Deferred[[]gorelay.Edge] {
	if err := commentSortKeys.Validate(h.sortKey); err != nil {
		return gorelay.Rejected[[]gorelay.Edge](err)
	}

	return gorelay.LoadEdges[*Comment](h.loader, KindComment, h.sortKey, ids, func(comment *Comment, sortKey string) (any, error) {
		if sortKey != "CREATED_AT" {
			return nil, fmt.Errorf("%w for pagination '%s'", gorelay.ErrUnsupportedSortKey, sortKey)
		}

		return comment.Created, nil
	})
}

var _ gorelay.QueryHelper = (*CommentsQueryHelper)(nil)
