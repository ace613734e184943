package gorelay

// PageInfo describes the page a connection returned and whether more pages
// exist in either direction.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *Cursor `json:"startCursor"`
	EndCursor       *Cursor `json:"endCursor"`
}

// Result is the externally visible shape of one connection page.
type Result struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"pageInfo"`
}

// Nodes returns the edge nodes in order.
func (r *Result) Nodes() []Entity {
	if r == nil {
		return nil
	}

	nodes := make([]Entity, 0, len(r.Edges))
	for _, edge := range r.Edges {
		nodes = append(nodes, edge.Node)
	}

	return nodes
}

// IDs returns the ids of the edge nodes in order.
func (r *Result) IDs() []ID {
	if r == nil {
		return nil
	}

	ids := make([]ID, 0, len(r.Edges))
	for _, edge := range r.Edges {
		ids = append(ids, edge.Cursor.ID)
	}

	return ids
}
