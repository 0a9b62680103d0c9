package backend

// AttrCreatedAt addresses a document's creation timestamp in order
// predicates; it resolves to Document.CreatedAt rather than a payload
// attribute.
const AttrCreatedAt = "createdAt"

// QueryMethod identifies a supported list predicate.
type QueryMethod string

const (
	QueryEqual     QueryMethod = "equal"
	QueryOrderDesc QueryMethod = "orderDesc"
	QueryLimit     QueryMethod = "limit"
	QuerySearch    QueryMethod = "search"
)

// Query is a single predicate applied to a document list operation. The
// zero value is invalid; use the constructors.
type Query struct {
	Method    QueryMethod
	Attribute string
	Value     any
}

// Equal matches documents whose attribute equals value exactly.
func Equal(attribute string, value any) Query {
	return Query{Method: QueryEqual, Attribute: attribute, Value: value}
}

// OrderDesc sorts results by the attribute, newest/greatest first.
func OrderDesc(attribute string) Query {
	return Query{Method: QueryOrderDesc, Attribute: attribute}
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return Query{Method: QueryLimit, Value: n}
}

// Search performs the provider's full-text match on the attribute. Result
// ordering is left to the provider.
func Search(attribute, terms string) Query {
	return Query{Method: QuerySearch, Attribute: attribute, Value: terms}
}
