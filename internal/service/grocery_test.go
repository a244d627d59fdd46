package service

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukerupert/pantrylist/internal/access"
	"github.com/dukerupert/pantrylist/internal/database"
	"github.com/dukerupert/pantrylist/internal/model"
	"github.com/dukerupert/pantrylist/internal/store"
)

type testEnv struct {
	svc    *Service
	users  *store.UserStore
	lists  *store.ListStore
	items  *store.ItemStore
	grants *store.GrantStore
	alice  *model.User
	bob    *model.User
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	lists := store.NewListStore(db)
	items := store.NewItemStore(db)
	grants := store.NewGrantStore(db)
	eval := access.NewEvaluator(grants)

	alice, err := users.Create("alice", "Alice Smith", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	bob, err := users.Create("bob", "Bob Jones", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return &testEnv{
		svc:    New(users, lists, items, grants, eval, slog.Default()),
		users:  users,
		lists:  lists,
		items:  items,
		grants: grants,
		alice:  alice,
		bob:    bob,
	}
}

func TestCreateListRoundTrip(t *testing.T) {
	env := setupServiceTest(t)

	list, err := env.svc.CreateList("alice", "Milk Run")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	got, err := env.lists.GetByID(list.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if got == nil || got.Name != "Milk Run" {
		t.Fatalf("expected list %q, got %+v", "Milk Run", got)
	}

	grant, err := env.grants.GetByListAndUser(list.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if grant == nil || !grant.Owner {
		t.Fatalf("expected owner grant, got %+v", grant)
	}

	items, err := env.items.ListByList(list.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected zero items, got %d", len(items))
	}
}

func TestCreateListValidation(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.svc.CreateList("alice", "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["name"]; !ok {
		t.Error("expected name field error")
	}
}

func TestRenameListBoundaries(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	res, err := env.svc.RenameList(list.ID, env.alice.ID, "")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Outcome != OutcomeInvalidName {
		t.Errorf("empty name outcome = %q, want %q", res.Outcome, OutcomeInvalidName)
	}

	res, err = env.svc.RenameList(list.ID, env.alice.ID, strings.Repeat("x", 51))
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Outcome != OutcomeInvalidName {
		t.Errorf("51-char outcome = %q, want %q", res.Outcome, OutcomeInvalidName)
	}

	res, err = env.svc.RenameList(list.ID, env.alice.ID, strings.Repeat("x", 50))
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Outcome != OutcomeUpdatedList {
		t.Errorf("50-char outcome = %q, want %q", res.Outcome, OutcomeUpdatedList)
	}
	if res.List.Name != strings.Repeat("x", 50) {
		t.Error("expected name updated")
	}
}

func TestRenameListMissing(t *testing.T) {
	env := setupServiceTest(t)

	res, err := env.svc.RenameList(999, env.alice.ID, "New Name")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Outcome != OutcomeInvalidList {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeInvalidList)
	}
}

func TestDeleteListOwnerOnly(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	// A user with no grant at all gets not-owner and the list survives.
	outcome, err := env.svc.DeleteList(list.ID, env.bob.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome != OutcomeNotOwner {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeNotOwner)
	}
	still, _ := env.lists.GetByID(list.ID)
	if still == nil {
		t.Fatal("list should survive denied delete")
	}

	outcome, err = env.svc.DeleteList(list.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome != OutcomeDeleted {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeDeleted)
	}
}

func TestDeleteListCascades(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")
	res, _ := env.svc.AddItem(list.ID, env.alice.ID, "Eggs", "1 dozen")
	grantRes, _ := env.svc.GrantAccess(list.ID, "bob@example.com")

	if _, err := env.svc.DeleteList(list.ID, env.alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	item, err := env.items.GetByID(res.Item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item != nil {
		t.Error("expected item gone after list delete")
	}
	grant, err := env.grants.GetByID(grantRes.GrantID)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if grant != nil {
		t.Error("expected grant gone after list delete")
	}
}

func TestAddItemValidation(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	_, err := env.svc.AddItem(list.ID, env.alice.ID, "", strings.Repeat("x", 51))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["name"]; !ok {
		t.Error("expected name field error")
	}
	if _, ok := ve.Fields["quantity"]; !ok {
		t.Error("expected quantity field error")
	}
}

func TestAddItemMissingList(t *testing.T) {
	env := setupServiceTest(t)

	res, err := env.svc.AddItem(999, env.alice.ID, "Eggs", "1 dozen")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if res.Outcome != OutcomeNotValid {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeNotValid)
	}
}

func TestRemoveItemMissing(t *testing.T) {
	env := setupServiceTest(t)

	res, err := env.svc.RemoveItem(999, env.alice.ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if res.Outcome != OutcomeNotValid {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeNotValid)
	}
}

func TestSetItemShoppedIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")
	added, _ := env.svc.AddItem(list.ID, env.alice.ID, "Eggs", "1 dozen")

	first, err := env.svc.SetItemShopped(added.Item.ID, env.alice.ID, true)
	if err != nil {
		t.Fatalf("set shopped: %v", err)
	}
	if first.Outcome != OutcomeChecked {
		t.Errorf("outcome = %q, want %q", first.Outcome, OutcomeChecked)
	}

	second, err := env.svc.SetItemShopped(added.Item.ID, env.alice.ID, true)
	if err != nil {
		t.Fatalf("set shopped again: %v", err)
	}
	if second.Outcome != OutcomeChecked {
		t.Errorf("repeat outcome = %q, want %q", second.Outcome, OutcomeChecked)
	}
	if !second.Item.Shopped {
		t.Error("expected shopped = true after both calls")
	}
}

func TestSetItemShoppedMissing(t *testing.T) {
	env := setupServiceTest(t)

	res, err := env.svc.SetItemShopped(999, env.alice.ID, true)
	if err != nil {
		t.Fatalf("set shopped: %v", err)
	}
	if res.Outcome != OutcomeNoItem {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeNoItem)
	}
}

func TestGrantAccessIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	first, err := env.svc.GrantAccess(list.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if first.Outcome != OutcomeGrantedPermission {
		t.Errorf("outcome = %q, want %q", first.Outcome, OutcomeGrantedPermission)
	}

	second, err := env.svc.GrantAccess(list.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if second.Outcome != OutcomePreviousAccess {
		t.Errorf("repeat outcome = %q, want %q", second.Outcome, OutcomePreviousAccess)
	}
	if second.GrantID != first.GrantID {
		t.Errorf("repeat grant id = %d, want %d", second.GrantID, first.GrantID)
	}

	grants, err := env.grants.ListAdditional(list.ID)
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Errorf("expected exactly 1 grant, got %d", len(grants))
	}
}

func TestGrantAccessFoldsEmailCase(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	// Registration stores emails lowercase; granting with whatever casing
	// the owner typed must still find the user.
	res, err := env.svc.GrantAccess(list.ID, "Bob@Example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if res.Outcome != OutcomeGrantedPermission {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeGrantedPermission)
	}
	if res.UserID != env.bob.ID {
		t.Errorf("user id = %d, want %d", res.UserID, env.bob.ID)
	}
}

func TestGrantAccessUnknownEmail(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	res, err := env.svc.GrantAccess(list.ID, "nobody@example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if res.Outcome != OutcomeInvalidPermission {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeInvalidPermission)
	}
}

func TestRevokeOwnerGrantDeclined(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")

	ownerGrant, err := env.grants.GetByListAndUser(list.ID, env.alice.ID)
	if err != nil || ownerGrant == nil {
		t.Fatalf("get owner grant: %v", err)
	}

	res, err := env.svc.RevokeAccess(ownerGrant.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Outcome != OutcomeRevokeDeclined {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeRevokeDeclined)
	}

	still, err := env.grants.GetByID(ownerGrant.ID)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if still == nil {
		t.Fatal("owner grant must survive a revoke attempt")
	}
}

func TestSharedListScenario(t *testing.T) {
	env := setupServiceTest(t)
	eval := access.NewEvaluator(env.grants)

	list, err := env.svc.CreateList("alice", "Groceries")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	added, err := env.svc.AddItem(list.ID, env.alice.ID, "Eggs", "1 dozen")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	granted, err := env.svc.GrantAccess(list.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	ok, err := eval.CanRead(env.bob.ID, list.ID)
	if err != nil {
		t.Fatalf("can read: %v", err)
	}
	if !ok {
		t.Fatal("bob should read after grant")
	}

	shopped, err := env.svc.SetItemShopped(added.Item.ID, env.bob.ID, true)
	if err != nil {
		t.Fatalf("set shopped: %v", err)
	}
	if shopped.Outcome != OutcomeChecked {
		t.Errorf("outcome = %q, want %q", shopped.Outcome, OutcomeChecked)
	}

	revoked, err := env.svc.RevokeAccess(granted.GrantID, env.alice.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Outcome != OutcomeAccessRevoked {
		t.Errorf("outcome = %q, want %q", revoked.Outcome, OutcomeAccessRevoked)
	}

	ok, err = eval.CanRead(env.bob.ID, list.ID)
	if err != nil {
		t.Fatalf("can read: %v", err)
	}
	if ok {
		t.Error("bob must not read after revoke")
	}
}

func TestRevokeRequiresOwner(t *testing.T) {
	env := setupServiceTest(t)
	list, _ := env.svc.CreateList("alice", "Groceries")
	granted, _ := env.svc.GrantAccess(list.ID, "bob@example.com")

	// Bob holds the grant but is not the owner, so he cannot revoke it.
	res, err := env.svc.RevokeAccess(granted.GrantID, env.bob.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Outcome != OutcomeNotOwner {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeNotOwner)
	}
}
