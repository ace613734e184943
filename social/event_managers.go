package social

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

var eventManagerSortKeys = gorelay.SortKeys{
	"CREATED_AT": "created",
}

// EventManagersQueryHelper loads the managers of an event, as recorded on
// the event's loaded revision.
type EventManagersQueryHelper struct {
	sortKey string
	db      *gorm.DB
	loader  *gorelay.Loader
	event   *Node
}

func NewEventManagersQueryHelper(sortKey string, db *gorm.DB, loader *gorelay.Loader, event *Node) *EventManagersQueryHelper {
	return &EventManagersQueryHelper{
		sortKey: sortKey,
		db:      db,
		loader:  loader,
		event:   event,
	}
}

func (h *EventManagersQueryHelper) Kind() string {
	return KindUser
}

func (h *EventManagersQueryHelper) SortKey() string {
	return h.sortKey
}

// BaseQuery - implements gorelay.QueryHelper.
func (h *EventManagersQueryHelper) BaseQuery(ctx context.Context) (*gorm.DB, error) {
	if h.event == nil {
		return nil, fmt.Errorf("event managers need an event")
	}

	managers := h.db.Model(&EventManager{}).
		Select("user_id").
		Where("event_id = ? AND revision_id = ?", h.event.NID, h.event.VID)

	return h.db.WithContext(ctx).Model(&User{}).Where("uid IN (?)", managers), nil
}

func (h *EventManagersQueryHelper) IDField() string {
	return "uid"
}

func (h *EventManagersQueryHelper) SortField() (string, error) {
	return eventManagerSortKeys.Field(h.sortKey)
}

func (h *EventManagersQueryHelper) CursorFor(raw string) *gorelay.Cursor {
	return gorelay.CursorFor(raw, h.sortKey, KindUser)
}

// LoadEdges - implements gorelay.QueryHelper.
func (h *EventManagersQueryHelper) LoadEdges(ids []gorelay.ID) *gorelay.Deferred[[]gorelay.Edge] {
	if err := eventManagerSortKeys.Validate(h.sortKey); err != nil {
		return gorelay.Rejected[[]gorelay.Edge](err)
	}

	return gorelay.LoadEdges[*User](h.loader, KindUser, h.sortKey, ids, h.sortValue)
}

func (h *EventManagersQueryHelper) sortValue(user *User, sortKey string) (any, error) {
	switch sortKey {
	case "CREATED_AT":
		return user.Created, nil
	default:
		return nil, fmt.Errorf("%w for pagination '%s'", gorelay.ErrUnsupportedSortKey, sortKey)
	}
}

var _ gorelay.QueryHelper = (*EventManagersQueryHelper)(nil)
