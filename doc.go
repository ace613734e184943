// Package gorelay provides cursor-based connections over GORM row sources
// with batched, deferred entity loading.
//
// Overview
//
// A connection pages through the rows a QueryHelper describes. Rows are
// ordered by one sort key with ties broken by id, and a page is located with
// an opaque Cursor carrying {kind, sort key, id, sort value}. The cursor is
// turned into a keyset predicate:
//
//	(sort > v) OR (sort = v AND id > cid)
//
// so a page never depends on an offset and stays stable under inserts.
//
// Key concepts
//   - Cursor: opaque, URL safe token minted for every edge.
//   - Connection: applies the cursors, fetches one lookahead row to tell
//     whether more rows follow, trims and orders the page and builds PageInfo.
//   - QueryHelper: one implementation per relationship; supplies the base
//     query, the id and sort fields and the edge loader.
//   - Loader: coalesces every id requested during a Pass into one
//     EntityStore fetch per entity kind, flushed on the first Await.
//   - Deferred: a memoized value that is produced on first Await.
//
// Executing several connections of one Pass before awaiting any of them is
// what lets the Loader fetch each kind once:
//
//	pass := gorelay.NewPass(store)
//	a, _ := pass.Connection(managersOf(event1)).WithPagination(args)
//	b, _ := pass.Connection(managersOf(event2)).WithPagination(args)
//	pageA, pageB := a.Execute(ctx), b.Execute(ctx)
//	resultA, err := pageA.Await(ctx) // one user fetch for both pages
//
// See the social package for complete helpers and cmd/gorelay for a CLI.
package gorelay
