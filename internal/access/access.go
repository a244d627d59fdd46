// Package access decides what a user may do with a grocery list. Both checks
// are pure reads over the grant store; they never mutate state.
package access

import (
	"github.com/dukerupert/pantrylist/internal/store"
)

type Evaluator struct {
	grants *store.GrantStore
}

func NewEvaluator(grants *store.GrantStore) *Evaluator {
	return &Evaluator{grants: grants}
}

// CanRead reports whether any grant exists for the user and list, owner or
// not. Every list/item operation except list creation requires it.
func (e *Evaluator) CanRead(userID, listID int64) (bool, error) {
	g, err := e.grants.GetByListAndUser(listID, userID)
	if err != nil {
		return false, err
	}
	return g != nil, nil
}

// IsOwner reports whether the user holds the owner grant for the list.
// Destructive list operations (delete, manage grants) require it.
func (e *Evaluator) IsOwner(userID, listID int64) (bool, error) {
	g, err := e.grants.GetByListAndUser(listID, userID)
	if err != nil {
		return false, err
	}
	return g != nil && g.Owner, nil
}
