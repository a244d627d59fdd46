// Package service orchestrates list, item, and grant mutations. Permission
// checks go through the access evaluator, writes go through the entity
// stores, and every expected business failure comes back as an Outcome so
// callers can treat races with other clients as ordinary flow.
package service

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/pantrylist/internal/access"
	"github.com/dukerupert/pantrylist/internal/model"
	"github.com/dukerupert/pantrylist/internal/store"
)

const maxNameLength = 50

type Service struct {
	users  *store.UserStore
	lists  *store.ListStore
	items  *store.ItemStore
	grants *store.GrantStore
	access *access.Evaluator
	logger *slog.Logger
}

func New(users *store.UserStore, lists *store.ListStore, items *store.ItemStore, grants *store.GrantStore, eval *access.Evaluator, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		lists:  lists,
		items:  items,
		grants: grants,
		access: eval,
		logger: logger,
	}
}

// validLength reports whether the value is 1 to 50 Unicode code points.
func validLength(value string) bool {
	n := utf8.RuneCountInString(value)
	return n >= 1 && n <= maxNameLength
}

// CreateList creates a list owned by the user with the given handle. The
// list and its owner grant are written atomically.
func (s *Service) CreateList(ownerHandle, name string) (*model.GroceryList, error) {
	name = strings.TrimSpace(name)
	if !validLength(name) {
		return nil, &ValidationError{Fields: map[string]string{
			"name": "The List must have a Name between 1 and 50 characters long.",
		}}
	}

	owner, err := s.users.GetByHandle(ownerHandle)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, &ValidationError{Fields: map[string]string{
			"owner": "No such user.",
		}}
	}

	list, err := s.lists.Create(name, owner.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("list created", "list_id", list.ID, "owner", ownerHandle)
	return list, nil
}

type RenameResult struct {
	Outcome Outcome
	List    *model.GroceryList
}

func (s *Service) RenameList(listID, requesterID int64, name string) (RenameResult, error) {
	name = strings.TrimSpace(name)
	if !validLength(name) {
		return RenameResult{Outcome: OutcomeInvalidName}, nil
	}

	list, err := s.lists.GetByID(listID)
	if err != nil {
		return RenameResult{}, err
	}
	if list == nil {
		return RenameResult{Outcome: OutcomeInvalidList}, nil
	}

	ok, err := s.access.CanRead(requesterID, listID)
	if err != nil {
		return RenameResult{}, err
	}
	if !ok {
		return RenameResult{Outcome: OutcomeNoAccess}, nil
	}

	updated, err := s.lists.UpdateName(listID, name)
	if err != nil {
		return RenameResult{}, err
	}
	return RenameResult{Outcome: OutcomeUpdatedList, List: updated}, nil
}

// DeleteList removes a list and, via cascade, its items and grants. Only the
// owner may do this; a non-owner with read access gets not-owner back.
func (s *Service) DeleteList(listID, requesterID int64) (Outcome, error) {
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return "", err
	}
	if list == nil {
		return OutcomeInvalidRequest, nil
	}

	owner, err := s.access.IsOwner(requesterID, listID)
	if err != nil {
		return "", err
	}
	if !owner {
		return OutcomeNotOwner, nil
	}

	if err := s.lists.Delete(listID); err != nil {
		return "", err
	}
	s.logger.Info("list deleted", "list_id", listID, "user_id", requesterID)
	return OutcomeDeleted, nil
}

type AddItemResult struct {
	Outcome Outcome
	Item    *model.GroceryItem
}

func (s *Service) AddItem(listID, requesterID int64, name, quantity string) (AddItemResult, error) {
	name = strings.TrimSpace(name)
	quantity = strings.TrimSpace(quantity)

	fields := map[string]string{}
	if !validLength(name) {
		fields["name"] = "The Item must have a Name between 1 and 50 characters long."
	}
	if !validLength(quantity) {
		fields["quantity"] = "The Item must have a Quantity between 1 and 50 characters long."
	}
	if len(fields) > 0 {
		return AddItemResult{}, &ValidationError{Fields: fields}
	}

	list, err := s.lists.GetByID(listID)
	if err != nil {
		return AddItemResult{}, err
	}
	if list == nil {
		return AddItemResult{Outcome: OutcomeNotValid}, nil
	}

	ok, err := s.access.CanRead(requesterID, listID)
	if err != nil {
		return AddItemResult{}, err
	}
	if !ok {
		return AddItemResult{Outcome: OutcomeNoAccess}, nil
	}

	item, err := s.items.Create(listID, name, quantity)
	if err != nil {
		return AddItemResult{}, err
	}
	return AddItemResult{Outcome: OutcomeAddedItem, Item: item}, nil
}

type RemoveItemResult struct {
	Outcome Outcome
	ItemID  int64
	ListID  int64
}

// RemoveItem deletes an item by id. A missing item is the not-valid outcome
// rather than an error: the triggering event may have raced another client's
// delete.
func (s *Service) RemoveItem(itemID, requesterID int64) (RemoveItemResult, error) {
	item, err := s.items.GetByID(itemID)
	if err != nil {
		return RemoveItemResult{}, err
	}
	if item == nil {
		return RemoveItemResult{Outcome: OutcomeNotValid, ItemID: itemID}, nil
	}

	ok, err := s.access.CanRead(requesterID, item.ListID)
	if err != nil {
		return RemoveItemResult{}, err
	}
	if !ok {
		return RemoveItemResult{Outcome: OutcomeNoAccess, ItemID: itemID}, nil
	}

	if err := s.items.Delete(itemID); err != nil {
		return RemoveItemResult{}, err
	}
	return RemoveItemResult{Outcome: OutcomeItemRemoved, ItemID: itemID, ListID: item.ListID}, nil
}

type ShopResult struct {
	Outcome Outcome
	Item    *model.GroceryItem
}

// SetItemShopped writes the shopped flag on an item. Setting the same value
// twice reports the same success outcome both times.
func (s *Service) SetItemShopped(itemID, requesterID int64, shopped bool) (ShopResult, error) {
	item, err := s.items.GetByID(itemID)
	if err != nil {
		return ShopResult{}, err
	}
	if item == nil {
		return ShopResult{Outcome: OutcomeNoItem}, nil
	}

	ok, err := s.access.CanRead(requesterID, item.ListID)
	if err != nil {
		return ShopResult{}, err
	}
	if !ok {
		return ShopResult{Outcome: OutcomeNoAccess}, nil
	}

	updated, err := s.items.SetShopped(itemID, shopped)
	if err != nil {
		return ShopResult{}, err
	}
	outcome := OutcomeUnchecked
	if shopped {
		outcome = OutcomeChecked
	}
	return ShopResult{Outcome: outcome, Item: updated}, nil
}

type GrantResult struct {
	Outcome Outcome
	GrantID int64
	ListID  int64
	UserID  int64
}

// GrantAccess gives the user behind an email address read access to a list.
// Granting twice is the previous-access outcome, not an error, so clients
// can re-invoke safely. Owner gating happens at the handler boundary; the
// permissions page is owner-only. Emails are stored lowercase at
// registration, so the lookup folds case the same way.
func (s *Service) GrantAccess(listID int64, email string) (GrantResult, error) {
	user, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return GrantResult{}, err
	}
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return GrantResult{}, err
	}
	if user == nil || list == nil {
		return GrantResult{Outcome: OutcomeInvalidPermission, ListID: listID}, nil
	}

	existing, err := s.grants.GetByListAndUser(listID, user.ID)
	if err != nil {
		return GrantResult{}, err
	}
	if existing != nil {
		return GrantResult{Outcome: OutcomePreviousAccess, GrantID: existing.ID, ListID: listID, UserID: user.ID}, nil
	}

	grant, err := s.grants.Create(listID, user.ID)
	if err != nil {
		return GrantResult{}, err
	}
	s.logger.Info("access granted", "list_id", listID, "user_id", user.ID, "grant_id", grant.ID)
	return GrantResult{Outcome: OutcomeGrantedPermission, GrantID: grant.ID, ListID: listID, UserID: user.ID}, nil
}

type RevokeResult struct {
	Outcome Outcome
	GrantID int64
	ListID  int64
	UserID  int64
}

// RevokeAccess deletes a non-owner grant. The owner grant can never be
// revoked; attempts come back revoke-declined.
func (s *Service) RevokeAccess(grantID, requesterID int64) (RevokeResult, error) {
	grant, err := s.grants.GetByID(grantID)
	if err != nil {
		return RevokeResult{}, err
	}
	if grant == nil {
		return RevokeResult{Outcome: OutcomeNoAccess, GrantID: grantID}, nil
	}

	owner, err := s.access.IsOwner(requesterID, grant.ListID)
	if err != nil {
		return RevokeResult{}, err
	}
	if !owner {
		return RevokeResult{Outcome: OutcomeNotOwner, GrantID: grantID}, nil
	}

	if grant.Owner {
		return RevokeResult{Outcome: OutcomeRevokeDeclined, GrantID: grantID, ListID: grant.ListID, UserID: grant.UserID}, nil
	}

	if err := s.grants.Delete(grantID); err != nil {
		return RevokeResult{}, err
	}
	s.logger.Info("access revoked", "grant_id", grantID, "list_id", grant.ListID, "user_id", grant.UserID)
	return RevokeResult{Outcome: OutcomeAccessRevoked, GrantID: grantID, ListID: grant.ListID, UserID: grant.UserID}, nil
}
