package social

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

var topicSortKeys = gorelay.SortKeys{
	"CREATED_AT": "created",
	"TITLE":      "title",
}

// TopicsQueryHelper loads topics, optionally restricted to one topic type.
type TopicsQueryHelper struct {
	sortKey   string
	db        *gorm.DB
	loader    *gorelay.Loader
	topicType string
}

func NewTopicsQueryHelper(sortKey string, db *gorm.DB, loader *gorelay.Loader, topicType string) *TopicsQueryHelper {
	return &TopicsQueryHelper{
		sortKey:   sortKey,
		db:        db,
		loader:    loader,
		topicType: topicType,
	}
}

func (h *TopicsQueryHelper) Kind() string {
	return KindNode
}

func (h *TopicsQueryHelper) SortKey() string {
	return h.sortKey
}

func (h *TopicsQueryHelper) BaseQuery(ctx context.Context) (*gorm.DB, error) {
	query := h.db.WithContext(ctx).Model(&Node{}).Where("type = ?", NodeTypeTopic)
	if h.topicType != "" {
		query = query.Where("topic_type = ?", h.topicType)
	}

	return query, nil
}

func (h *TopicsQueryHelper) IDField() string {
	return "nid"
}

func (h *TopicsQueryHelper) SortField() (string, error) {
	return topicSortKeys.Field(h.sortKey)
}

func (h *TopicsQueryHelper) CursorFor(raw string) *gorelay.Cursor {
	return gorelay.CursorFor(raw, h.sortKey, KindNode)
}

func (h *TopicsQueryHelper) LoadEdges(ids []gorelay.ID) *gorelay.Deferred[[]gorelay.Edge] {
	if err := topicSortKeys.Validate(h.sortKey); err != nil {
		return gorelay.Rejected[[]gorelay.Edge](err)
	}

	return gorelay.LoadEdges[*Node](h.loader, KindNode, h.sortKey, ids, topicSortValue)
}

func topicSortValue(topic *Node, sortKey string) (any, error) {
	switch sortKey {
	case "CREATED_AT":
		return topic.Created, nil
	case "TITLE":
		return topic.Title, nil
	default:
		return nil, fmt.Errorf("%w for pagination '%s'", gorelay.ErrUnsupportedSortKey, sortKey)
	}
}

var _ gorelay.QueryHelper = (*TopicsQueryHelper)(nil)
