package service

// Outcome is the closed set of business results returned by mutation
// operations. Expected failures (missing entities, permission refusals,
// duplicate grants) are outcomes, not errors: a concurrent client may have
// deleted the entity between the triggering event and this call.
type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeUpdatedList       Outcome = "updated-list"
	OutcomeInvalidName       Outcome = "invalid-name"
	OutcomeInvalidList       Outcome = "invalid-list"
	OutcomeDeleted           Outcome = "deleted"
	OutcomeNotOwner          Outcome = "not-owner"
	OutcomeInvalidRequest    Outcome = "invalid-request"
	OutcomeAddedItem         Outcome = "added-item"
	OutcomeItemRemoved       Outcome = "item-removed"
	OutcomeNotValid          Outcome = "not-valid"
	OutcomeChecked           Outcome = "checked"
	OutcomeUnchecked         Outcome = "unchecked"
	OutcomeNoItem            Outcome = "no-item"
	OutcomeGrantedPermission Outcome = "granted-permission"
	OutcomePreviousAccess    Outcome = "previous-access"
	OutcomeInvalidPermission Outcome = "invalid-permission"
	OutcomeAccessRevoked     Outcome = "access-revoked"
	OutcomeRevokeDeclined    Outcome = "revoke-declined"
	OutcomeNoAccess          Outcome = "no-access"
)

// ValidationError carries field-keyed messages for 1-50 code point name and
// quantity bounds. It is the only failure surfaced as a field map rather
// than an outcome tag.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	for field, msg := range e.Fields {
		return field + ": " + msg
	}
	return "validation failed"
}
