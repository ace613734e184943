package social

import (
	"context"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

// DefaultSortKey is used by every social connection when the request does
// not name one.
const DefaultSortKey = "CREATED_AT"

// Resolver builds the social connections of one resolution pass. Every
// connection it returns shares the pass loader, so executing several of them
// before awaiting any loads each entity kind once.
type Resolver struct {
	db           *gorm.DB
	pass         *gorelay.Pass
	defaultLimit int
	maxLimit     int
}

func NewResolver(db *gorm.DB, pass *gorelay.Pass) *Resolver {
	return &Resolver{
		db:           db,
		pass:         pass,
		defaultLimit: gorelay.DefaultLimit,
		maxLimit:     gorelay.MaxLimit,
	}
}

// WithLimits overrides the default and maximum page sizes.
func (r *Resolver) WithLimits(defaultLimit, maxLimit int) *Resolver {
	r.defaultLimit = defaultLimit
	r.maxLimit = maxLimit

	return r
}

// EventManagers executes the managers connection of event.
func (r *Resolver) EventManagers(ctx context.Context, event *Node, args gorelay.RawConnectionArgs) (*gorelay.Deferred[*gorelay.Result], error) {
	pagination, sortKey := args.Decode(DefaultSortKey)

	return r.execute(ctx, NewEventManagersQueryHelper(sortKey, r.db, r.pass.Loader(), event), pagination)
}

// Topics executes the topics connection, restricted to topicType when it is
// not empty.
func (r *Resolver) Topics(ctx context.Context, topicType string, args gorelay.RawConnectionArgs) (*gorelay.Deferred[*gorelay.Result], error) {
	pagination, sortKey := args.Decode(DefaultSortKey)

	return r.execute(ctx, NewTopicsQueryHelper(sortKey, r.db, r.pass.Loader(), topicType), pagination)
}

// Comments executes the comments connection of parent.
func (r *Resolver) Comments(ctx context.Context, parent *Node, args gorelay.RawConnectionArgs) (*gorelay.Deferred[*gorelay.Result], error) {
	pagination, sortKey := args.Decode(DefaultSortKey)

	return r.execute(ctx, NewCommentsQueryHelper(sortKey, r.db, r.pass.Loader(), parent), pagination)
}

// ActiveUsers executes the users connection. SortKeyCommentCount ranks users
// by the comments they posted.
func (r *Resolver) ActiveUsers(ctx context.Context, args gorelay.RawConnectionArgs) (*gorelay.Deferred[*gorelay.Result], error) {
	pagination, sortKey := args.Decode(DefaultSortKey)

	return r.execute(ctx, NewActiveUsersQueryHelper(sortKey, r.db, r.pass.Loader()), pagination)
}

func (r *Resolver) execute(ctx context.Context, helper gorelay.QueryHelper, args gorelay.PaginationArgs) (*gorelay.Deferred[*gorelay.Result], error) {
	conn, err := r.pass.Connection(helper).
		WithDefaultLimit(r.defaultLimit).
		WithMaxLimit(r.maxLimit).
		WithPagination(args)
	if err != nil {
		return nil, err
	}

	return conn.Execute(ctx), nil
}
