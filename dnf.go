package gorelay

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	conjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	disjunct []conjunct

	// dnf is a predicate in disjunctive normal form: disjuncts joined by OR,
	// each disjunct a list of conjuncts joined by AND.
	//
	//	DNF = (A11 AND A12) OR (A21 AND A22 AND A23)
	dnf []disjunct

	// keyset is the position a cursor points to, one element per ordering
	// column, most significant first:
	//
	//	[(C1, O1, V1), (C2, O2, V2)... (Cn, On, Vn)]
	//
	// It inflates to the predicate selecting rows strictly past it:
	//
	//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
	keyset []conjunct
)

// newKeyset builds the position of cursor within a connection ordered by
// sortExpr (in sortOp's direction) with ties broken by idField (in idOp's
// direction).
func newKeyset(sortExpr string, sortOp Operator, idField string, idOp Operator, cursor *Cursor) keyset {
	return keyset{
		{Column: sortExpr, Value: cursor.SortValue, Operator: sortOp},
		{Column: idField, Value: cursor.ID, Operator: idOp},
	}
}

func (k keyset) toDNF() dnf {
	ret := make(dnf, 0, len(k))
	for i := range k {
		ties := lo.Map(k[:i], func(item conjunct, _ int) conjunct {
			return conjunct{Column: item.Column, Value: item.Value, Operator: operatorEq}
		})

		d := make(disjunct, 0, len(ties)+1)
		d = append(d, ties...)
		d = append(d, k[i])

		ret = append(ret, d)
	}

	return ret
}

// applyWhere adds the keyset predicate to the WHERE clause.
func (k keyset) applyWhere(db *gorm.DB) *gorm.DB {
	exp := k.toDNF().toGORMExpression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// applyHaving adds the keyset predicate to the HAVING clause. Used when the
// sort expression is an aggregate.
func (k keyset) applyHaving(db *gorm.DB) *gorm.DB {
	sql, vars := k.toDNF().toSQLClause()
	if len(vars) == 0 {
		return db
	}

	return db.Having(sql, vars...)
}

// toGORMExpression converts Operator(Column, Value) into "Column Operator ?".
func (c conjunct) toGORMExpression() clause.Expression {
	sqlClause, arg := c.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

func (c conjunct) toSQLClause() (string, any) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value
}

// toGORMExpression joins the conjuncts with AND.
func (d disjunct) toGORMExpression() clause.Expression {
	andExpressions := lo.Map(d, func(item conjunct, _ int) clause.Expression {
		return item.toGORMExpression()
	})

	switch {
	case len(andExpressions) == 1:
		return andExpressions[0]
	case len(andExpressions) > 1:
		return clause.And(andExpressions...)
	default:
		return nil
	}
}

// toSQLClause renders "(K1 AND K2 AND K3)" with its placeholder values.
func (d disjunct) toSQLClause() (string, []any) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]any, 0, len(d))

	for _, c := range d {
		andClause, andValue := c.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) == 0 {
		return "", nil
	}

	return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
}

// toGORMExpression joins the disjuncts with OR.
func (d dnf) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, dj := range d {
		andExpressions := dj.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	switch {
	case len(orExpressions) == 1:
		return orExpressions[0]
	case len(orExpressions) > 1:
		return clause.Or(orExpressions...)
	default:
		return nil
	}
}

// toSQLClause renders "((A11 AND A12) OR (A21))" with its placeholder
// values, or "TRUE" for an empty predicate.
//
// Example:
//
//	dnf = {
//		{{Column: "created", Operator: ">", Value: 10}},
//		{{Column: "created", Operator: "=", Value: 10}, {Column: "uid", Operator: ">", Value: 3}},
//	}
//
// Result:
//
//	("((created > ?) OR (created = ? AND uid > ?))", [10, 10, 3])
func (d dnf) toSQLClause() (string, []any) {
	orClauses := make([]string, 0, len(d))
	values := make([]any, 0, len(d))

	for _, dj := range d {
		orClause, orValues := dj.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) == 0 {
		return "TRUE", nil
	}

	return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
}
