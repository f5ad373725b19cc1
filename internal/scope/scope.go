// Package scope selects the storage slice a (stack, district, company)
// triple maps to. Path resolution is pure: no network, no lookup, same
// inputs always give the same path, and distinct triples never collide.
package scope

import "fmt"

const collectionRoot = "companyQuestions"

type Scope struct {
	Stack     string
	District  string
	CompanyID string
}

// Valid reports whether all three components are present. An unresolved
// scope means "nothing to display", never "show everything".
func (s Scope) Valid() bool {
	return s.Stack != "" && s.District != "" && s.CompanyID != ""
}

// Resolve returns the record-collection path for the scope, or ("", false)
// when any component is missing.
func (s Scope) Resolve() (string, bool) {
	if !s.Valid() {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s/%s/questions", collectionRoot, s.Stack, s.District, s.CompanyID), true
}

// Channel is the live-update channel for the scope's record collection.
func (s Scope) Channel() string {
	return fmt.Sprintf("questions:%s:%s:%s", s.Stack, s.District, s.CompanyID)
}
