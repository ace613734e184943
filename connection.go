package gorelay

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RawConnectionArgs is intended for API payloads. For proper code generation, inline it:
//
//	type ManagersRequest struct {
//	    Paging RawConnectionArgs `json:",inline"`
//	}
type RawConnectionArgs struct {
	// First - page size when paging forward.
	First *int `json:"first,omitempty"`
	// After - cursor obtained via Cursor.String(). Forward pages start right after it.
	After string `json:"after,omitempty"`
	// Last - page size when paging backward.
	Last *int `json:"last,omitempty"`
	// Before - cursor obtained via Cursor.String(). Backward pages end right before it.
	Before string `json:"before,omitempty"`
	// Reverse - sort descending instead of ascending.
	Reverse bool `json:"reverse,omitempty"`
	// SortKey - selects the sort field of the connection.
	SortKey string `json:"sortKey,omitempty"`
}

// Decode splits the payload into pagination arguments and the sort key,
// falling back to defaultSortKey when none was sent.
func (a RawConnectionArgs) Decode(defaultSortKey string) (PaginationArgs, string) {
	return PaginationArgs{
		First:   a.First,
		After:   a.After,
		Last:    a.Last,
		Before:  a.Before,
		Reverse: a.Reverse,
	}, lo.Ternary(a.SortKey == "", defaultSortKey, a.SortKey)
}

// PaginationArgs selects one page of a connection. First pages forward and
// Last pages backward; they are mutually exclusive. After and Before narrow
// the range in either mode.
type PaginationArgs struct {
	First   *int
	After   string
	Last    *int
	Before  string
	Reverse bool
}

// Connection pages through the rows of a QueryHelper. A Connection holds the
// arguments of one pagination call and nothing else.
type Connection struct {
	helper       QueryHelper
	first        *int
	last         *int
	after        *Cursor
	before       *Cursor
	reverse      bool
	defaultLimit int
	maxLimit     int
	logger       logrus.FieldLogger
	metrics      *Metrics
}

func NewConnection(helper QueryHelper) *Connection {
	return &Connection{
		helper:       helper,
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
		logger:       logrus.StandardLogger(),
	}
}

// WithPagination configures the page to fetch. It fails with
// ErrInvalidArgument when First and Last are both set or either is negative,
// and with ErrUnsupportedSortKey when the helper cannot sort by its key.
// Cursors that cannot be decoded or belong to another connection are
// dropped: the page then starts (or ends) at the natural boundary.
func (c *Connection) WithPagination(args PaginationArgs) (*Connection, error) {
	if c == nil {
		return nil, fmt.Errorf("connection is nil")
	}

	if args.First != nil && args.Last != nil {
		return nil, fmt.Errorf("%w: 'first' and 'last' cannot be used together", ErrInvalidArgument)
	}
	if args.First != nil && *args.First < 0 {
		return nil, fmt.Errorf("%w: 'first' must not be negative, got %d", ErrInvalidArgument, *args.First)
	}
	if args.Last != nil && *args.Last < 0 {
		return nil, fmt.Errorf("%w: 'last' must not be negative, got %d", ErrInvalidArgument, *args.Last)
	}
	if c.helper != nil {
		if _, err := c.helper.SortField(); err != nil {
			return nil, err
		}
	}

	c.first = args.First
	c.last = args.Last
	c.reverse = args.Reverse
	c.after = c.cursorFor("after", args.After)
	c.before = c.cursorFor("before", args.Before)

	return c, nil
}

// WithDefaultLimit sets the page size used when neither First nor Last is given.
func (c *Connection) WithDefaultLimit(limit int) *Connection {
	if limit >= 0 {
		c.defaultLimit = limit
	}

	return c
}

// WithMaxLimit sets the upper bound page sizes are clamped to.
func (c *Connection) WithMaxLimit(limit int) *Connection {
	if limit >= 0 {
		c.maxLimit = limit
	}

	return c
}

func (c *Connection) WithLogger(logger logrus.FieldLogger) *Connection {
	if logger != nil {
		c.logger = logger
	}

	return c
}

func (c *Connection) WithMetrics(metrics *Metrics) *Connection {
	c.metrics = metrics
	return c
}

// IsBackward reports whether the connection pages backward (Last was set).
func (c *Connection) IsBackward() bool {
	return c != nil && c.last != nil
}

// GetCount returns the effective page size.
func (c *Connection) GetCount() int {
	if c == nil {
		return 0
	}

	return NormalizeCountMax(lo.Ternary(c.IsBackward(), c.last, c.first), c.defaultLimit, c.maxLimit)
}

// GetDatasetLimit returns the number of rows requested from the row source:
// the page size plus one lookahead row telling whether more rows follow.
func (c *Connection) GetDatasetLimit() int {
	return c.GetCount() + 1
}

// Execute runs the row query immediately and returns the page, resolved once
// the entities behind it are loaded. Executing several connections before
// awaiting any of them lets the Loader fetch each kind once.
func (c *Connection) Execute(ctx context.Context) *Deferred[*Result] {
	ids, pageInfo, err := c.fetchPage(ctx)
	if err != nil {
		return Rejected[*Result](err)
	}

	return Then(c.helper.LoadEdges(ids), func(_ context.Context, edges []Edge) (*Result, error) {
		if len(edges) > 0 {
			pageInfo.StartCursor = edges[0].Cursor
			pageInfo.EndCursor = edges[len(edges)-1].Cursor
		}

		return &Result{
			Edges:    edges,
			PageInfo: pageInfo,
		}, nil
	})
}

func (c *Connection) validate() error {
	if c == nil {
		return fmt.Errorf("connection is nil")
	}

	if c.helper == nil {
		return fmt.Errorf("connection has no query helper")
	}

	if c.first != nil && c.last != nil {
		return fmt.Errorf("%w: 'first' and 'last' cannot be used together", ErrInvalidArgument)
	}

	return nil
}

// orderings returns the presentation order of the connection: the sort
// expression in the requested direction, ties broken by id ascending.
func (c *Connection) orderings(sortExpr string) Orderings {
	return Orderings{
		{Column: sortExpr, Direction: lo.Ternary(c.reverse, DirectionDESC, DirectionASC)},
		{Column: c.helper.IDField(), Direction: DirectionASC},
	}
}

func (c *Connection) sortExpression() (string, bool, error) {
	sortField, err := c.helper.SortField()
	if err != nil {
		return "", false, err
	}

	if aggregator, ok := c.helper.(AggregateSorter); ok {
		if fn := aggregator.AggregateSortFunction(); fn != "" {
			return fmt.Sprintf("%s(%s)", fn, sortField), true, nil
		}
	}

	return sortField, false, nil
}

func (c *Connection) fetchPage(ctx context.Context) ([]ID, PageInfo, error) {
	if err := c.validate(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("cannot execute connection: %w", err)
	}

	sortExpr, isAggregate, err := c.sortExpression()
	if err != nil {
		return nil, PageInfo{}, err
	}

	presentation := c.orderings(sortExpr)
	if err = presentation.validate(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("cannot execute connection: %w", err)
	}

	kind := c.helper.Kind()
	backward := c.IsBackward()
	direction := lo.Ternary(backward, "backward", "forward")
	count := c.GetCount()

	ctx, span := tracer.Start(ctx, "gorelay.Connection.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", kind),
		attribute.String("sort_key", c.helper.SortKey()),
		attribute.String("direction", direction),
		attribute.Int("count", count),
	)

	query, err := c.helper.BaseQuery(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, PageInfo{}, fmt.Errorf("cannot build '%s' base query: %w", kind, err)
	}

	applyKeyset := lo.Ternary(isAggregate, keyset.applyHaving, keyset.applyWhere)
	sortDirection := presentation[0].Direction
	idField := presentation[1].Column

	if c.after != nil {
		query = applyKeyset(newKeyset(sortExpr, sortDirection.ForOperator(), idField, OperatorGT, c.after), query)
	}
	if c.before != nil {
		query = applyKeyset(newKeyset(sortExpr, sortDirection.ForOperator().Flip(), idField, OperatorLT, c.before), query)
	}

	// Backward pages are read from the far end and flipped back afterwards.
	ordering := lo.Ternary(backward, presentation.Flip(), presentation)

	var ids []ID
	err = ordering.Apply(query).
		Limit(c.GetDatasetLimit()).
		Pluck(idField, &ids).
		Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, PageInfo{}, fmt.Errorf("%w: cannot query '%s' rows: %w", ErrFetch, kind, err)
	}

	hasMore := len(ids) > count
	if hasMore {
		ids = ids[:count]
	}
	if backward {
		slices.Reverse(ids)
	}

	c.metrics.observePage(kind, direction)
	c.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"sort_key":  c.helper.SortKey(),
		"direction": direction,
		"count":     count,
		"rows":      len(ids),
		"has_more":  hasMore,
		"after":     c.after != nil,
		"before":    c.before != nil,
	}).Debug("connection page fetched")

	// The flag on the side the page was read from is exact. The opposite one
	// only reflects whether an accepted cursor bounded that side.
	pageInfo := PageInfo{
		HasNextPage:     lo.Ternary(backward, c.before != nil, hasMore),
		HasPreviousPage: lo.Ternary(backward, hasMore, c.after != nil),
	}

	return ids, pageInfo, nil
}

func (c *Connection) cursorFor(name, raw string) *Cursor {
	if raw == "" || c.helper == nil {
		return nil
	}

	cursor := c.helper.CursorFor(raw)
	if cursor == nil {
		c.logger.WithFields(logrus.Fields{
			"kind":     c.helper.Kind(),
			"sort_key": c.helper.SortKey(),
			"argument": name,
		}).Debug("ignoring cursor issued for another connection")
	}

	return cursor
}
