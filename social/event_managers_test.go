package social

import (
	"context"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

var (
	testEvent      = Node{NID: 10, VID: 11, Type: NodeTypeEvent, Title: "Meetup", Created: 1}
	testOtherEvent = Node{NID: 20, VID: 21, Type: NodeTypeEvent, Title: "Hackathon", Created: 2}
)

// seedManagers creates the users and makes them managers of event's current
// revision.
func seedManagers(t *testing.T, db *gorm.DB, event Node, users ...User) {
	t.Helper()

	existing := lo.Filter(users, func(u User, _ int) bool {
		return db.First(&User{}, "uid = ?", u.UID).Error != nil
	})
	create(t, db, existing...)

	create(t, db, lo.Map(users, func(u User, _ int) EventManager {
		return EventManager{EventID: event.NID, RevisionID: event.VID, UserID: u.UID}
	})...)
}

func newManagersFixture(t *testing.T) *gorm.DB {
	t.Helper()

	db := newSQLiteDB(t)
	create(t, db, testEvent, testOtherEvent)
	seedManagers(t, db, testEvent,
		User{UID: 5, Name: "five", Created: 100},
		User{UID: 2, Name: "two", Created: 300},
		User{UID: 8, Name: "eight", Created: 200},
	)

	// Managers of an older revision are not managers any more.
	create(t, db, User{UID: 1, Name: "one", Created: 10})
	create(t, db, EventManager{EventID: testEvent.NID, RevisionID: testEvent.VID - 1, UserID: 1})

	return db
}

func managersPage(t *testing.T, db *gorm.DB, store gorelay.EntityStore, args gorelay.RawConnectionArgs) *gorelay.Result {
	t.Helper()

	pass := gorelay.NewPass(store)
	page, err := NewResolver(db, pass).EventManagers(context.Background(), &testEvent, args)
	require.NoError(t, err)

	return await(t, page)
}

func Test_EventManagers_ForwardPaging(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	first := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2)})
	require.Equal(t, []gorelay.ID{5, 8}, first.IDs())
	require.True(t, first.PageInfo.HasNextPage)
	require.False(t, first.PageInfo.HasPreviousPage)
	require.Equal(t, gorelay.NewCursor(KindUser, 5, "CREATED_AT", 100), first.PageInfo.StartCursor)
	require.Equal(t, gorelay.NewCursor(KindUser, 8, "CREATED_AT", 200), first.PageInfo.EndCursor)

	names := lo.Map(first.Nodes(), func(node gorelay.Entity, _ int) string {
		return node.(*User).Name
	})
	require.Equal(t, []string{"five", "eight"}, names)

	second := managersPage(t, db, store, gorelay.RawConnectionArgs{
		First: lo.ToPtr(2),
		After: first.PageInfo.EndCursor.String(),
	})
	require.Equal(t, []gorelay.ID{2}, second.IDs())
	require.False(t, second.PageInfo.HasNextPage)
	require.True(t, second.PageInfo.HasPreviousPage)

	require.Len(t, store.calls[KindUser], 2)
}

func Test_EventManagers_BackwardIsSymmetric(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	first := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2)})
	second := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2), After: first.PageInfo.EndCursor.String()})

	back := managersPage(t, db, store, gorelay.RawConnectionArgs{
		Last:   lo.ToPtr(2),
		Before: second.PageInfo.StartCursor.String(),
	})
	require.Equal(t, first.IDs(), back.IDs())
	require.Equal(t, first.PageInfo.StartCursor, back.PageInfo.StartCursor)
	require.Equal(t, first.PageInfo.EndCursor, back.PageInfo.EndCursor)
	require.True(t, back.PageInfo.HasNextPage)
	require.False(t, back.PageInfo.HasPreviousPage)

	last := managersPage(t, db, store, gorelay.RawConnectionArgs{Last: lo.ToPtr(1)})
	require.Equal(t, []gorelay.ID{2}, last.IDs())
	require.True(t, last.PageInfo.HasPreviousPage)
	require.False(t, last.PageInfo.HasNextPage)
}

func Test_EventManagers_Reverse(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	page := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2), Reverse: true})
	require.Equal(t, []gorelay.ID{2, 8}, page.IDs())
	require.True(t, page.PageInfo.HasNextPage)

	rest := managersPage(t, db, store, gorelay.RawConnectionArgs{
		First:   lo.ToPtr(2),
		After:   page.PageInfo.EndCursor.String(),
		Reverse: true,
	})
	require.Equal(t, []gorelay.ID{5}, rest.IDs())
	require.False(t, rest.PageInfo.HasNextPage)
}

func Test_EventManagers_TiesVisitEveryRowOnce(t *testing.T) {
	db := newSQLiteDB(t)
	create(t, db, testEvent)
	seedManagers(t, db, testEvent,
		User{UID: 7, Created: 100},
		User{UID: 3, Created: 100},
		User{UID: 9, Created: 50},
		User{UID: 4, Created: 100},
		User{UID: 6, Created: 200},
		User{UID: 1, Created: 100},
	)
	store := newCountingStore(db)
	want := []gorelay.ID{9, 1, 3, 4, 7, 6}

	for _, size := range []int{1, 2, 4} {
		var visited []gorelay.ID
		after := ""
		for {
			page := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(size), After: after})
			visited = append(visited, page.IDs()...)
			if !page.PageInfo.HasNextPage {
				break
			}
			after = page.PageInfo.EndCursor.String()
		}
		require.Equal(t, want, visited, "page size %d", size)

		var backward []gorelay.ID
		before := ""
		for {
			page := managersPage(t, db, store, gorelay.RawConnectionArgs{Last: lo.ToPtr(size), Before: before})
			backward = append(page.IDs(), backward...)
			if !page.PageInfo.HasPreviousPage {
				break
			}
			before = page.PageInfo.StartCursor.String()
		}
		require.Equal(t, want, backward, "backward page size %d", size)
	}

	// Ties stay ascending by id when the sort key is descending.
	var reversed []gorelay.ID
	after := ""
	for {
		page := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2), After: after, Reverse: true})
		reversed = append(reversed, page.IDs()...)
		if !page.PageInfo.HasNextPage {
			break
		}
		after = page.PageInfo.EndCursor.String()
	}
	require.Equal(t, []gorelay.ID{6, 1, 3, 4, 7, 9}, reversed)
}

func Test_EventManagers_Overfetch(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	exact := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(3)})
	require.Len(t, exact.Edges, 3)
	require.False(t, exact.PageInfo.HasNextPage)

	short := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(2)})
	require.Len(t, short.Edges, 2)
	require.True(t, short.PageInfo.HasNextPage)

	// The lookahead row is never loaded.
	require.Equal(t, []gorelay.ID{5, 8}, store.calls[KindUser][1])
}

func Test_EventManagers_FirstZero(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	page := managersPage(t, db, store, gorelay.RawConnectionArgs{First: lo.ToPtr(0)})
	require.Empty(t, page.Edges)
	require.True(t, page.PageInfo.HasNextPage)
	require.Nil(t, page.PageInfo.StartCursor)
	require.Nil(t, page.PageInfo.EndCursor)

	pass := gorelay.NewPass(store)
	empty, err := NewResolver(db, pass).EventManagers(context.Background(), &testOtherEvent, gorelay.RawConnectionArgs{First: lo.ToPtr(0)})
	require.NoError(t, err)
	result := await(t, empty)
	require.Empty(t, result.Edges)
	require.False(t, result.PageInfo.HasNextPage)

	require.Zero(t, store.total())
}

func Test_EventManagers_UnsupportedSortKey(t *testing.T) {
	db := newManagersFixture(t)
	store := newCountingStore(db)

	pass := gorelay.NewPass(store)
	_, err := NewResolver(db, pass).EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{
		First:   lo.ToPtr(2),
		SortKey: "BOGUS",
	})
	require.ErrorIs(t, err, gorelay.ErrUnsupportedSortKey)
	require.Zero(t, store.total())
	require.Empty(t, pass.Loader().Pending(KindUser))
}

func Test_EventManagers_InvalidArguments(t *testing.T) {
	db := newManagersFixture(t)
	pass := gorelay.NewPass(newCountingStore(db))

	_, err := NewResolver(db, pass).EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{
		First: lo.ToPtr(1),
		Last:  lo.ToPtr(1),
	})
	require.ErrorIs(t, err, gorelay.ErrInvalidArgument)
}

func Test_EventManagers_OnePassOneFetch(t *testing.T) {
	db := newManagersFixture(t)
	seedManagers(t, db, testOtherEvent,
		User{UID: 8},
		User{UID: 11, Name: "eleven", Created: 400},
	)
	store := newCountingStore(db)
	pass := gorelay.NewPass(store)
	resolver := NewResolver(db, pass)

	a, err := resolver.EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{})
	require.NoError(t, err)
	b, err := resolver.EventManagers(context.Background(), &testOtherEvent, gorelay.RawConnectionArgs{})
	require.NoError(t, err)

	require.Zero(t, store.total())

	pageB := await(t, b)
	pageA := await(t, a)

	require.Equal(t, []gorelay.ID{5, 8, 2}, pageA.IDs())
	require.Equal(t, []gorelay.ID{8, 11}, pageB.IDs())
	require.Len(t, store.calls[KindUser], 1)

	fetched := slices.Clone(store.calls[KindUser][0])
	slices.Sort(fetched)
	require.Equal(t, []gorelay.ID{2, 5, 8, 11}, fetched)

	// Both pages hold the very same entity.
	require.Same(t, pageA.Edges[1].Node, pageB.Edges[0].Node)
}

func Test_EventManagers_DeletedBeforeLoad(t *testing.T) {
	db := newManagersFixture(t)
	pass := gorelay.NewPass(newCountingStore(db))

	page, err := NewResolver(db, pass).EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{})
	require.NoError(t, err)

	require.NoError(t, db.Delete(&User{}, "uid = ?", 8).Error)

	result := await(t, page)
	require.Equal(t, []gorelay.ID{5, 2}, result.IDs())
}

func Test_EventManagers_NilEvent(t *testing.T) {
	db := newSQLiteDB(t)
	pass := gorelay.NewPass(newCountingStore(db))

	page, err := NewResolver(db, pass).EventManagers(context.Background(), nil, gorelay.RawConnectionArgs{})
	require.NoError(t, err)

	_, err = page.Await(context.Background())
	require.ErrorContains(t, err, "event managers need an event")
}

func Test_Resolver_Limits(t *testing.T) {
	db := newManagersFixture(t)
	pass := gorelay.NewPass(newCountingStore(db))
	resolver := NewResolver(db, pass).WithLimits(1, 2)

	page, err := resolver.EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{})
	require.NoError(t, err)
	require.Len(t, await(t, page).Edges, 1)

	page, err = resolver.EventManagers(context.Background(), &testEvent, gorelay.RawConnectionArgs{First: lo.ToPtr(100)})
	require.NoError(t, err)
	require.Len(t, await(t, page).Edges, 2)
}
