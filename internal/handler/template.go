package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pantrylist/internal/access"
	"github.com/dukerupert/pantrylist/internal/auth"
	"github.com/dukerupert/pantrylist/internal/model"
	"github.com/dukerupert/pantrylist/internal/store"
)

// TemplateHandler serves the four pages and the row fragments the
// reconciliation scripts splice into them. Fragment endpoints are
// permission-checked and answer with an empty 200 body whenever the caller
// lacks access or the entity is gone — a deleted entity is never an error
// here, because the delete notification handles row removal on its own.
type TemplateHandler struct {
	lists     *store.ListStore
	items     *store.ItemStore
	grants    *store.GrantStore
	users     *store.UserStore
	access    *access.Evaluator
	templates *template.Template
	logger    *slog.Logger
}

func NewTemplateHandler(lists *store.ListStore, items *store.ItemStore, grants *store.GrantStore, users *store.UserStore, eval *access.Evaluator, logger *slog.Logger) *TemplateHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/*.html"))
	return &TemplateHandler{
		lists:     lists,
		items:     items,
		grants:    grants,
		users:     users,
		access:    eval,
		templates: tmpl,
		logger:    logger,
	}
}

func (h *TemplateHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}

// indexRow is the view model for one list row on the index page. Rows are
// keyed by the viewing user's own grant id so that an access-revoked event
// can remove exactly the right row.
type indexRow struct {
	GrantID    int64
	ListID     int64
	Name       string
	OwnerEmail string
	ItemCount  int
	IsOwner    bool
}

func (h *TemplateHandler) buildIndexRow(list *model.GroceryList, userID int64) (*indexRow, error) {
	grant, err := h.grants.GetByListAndUser(list.ID, userID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, nil
	}
	ownerEmail, err := h.grants.OwnerEmail(list.ID)
	if err != nil {
		return nil, err
	}
	count, err := h.items.CountByList(list.ID)
	if err != nil {
		return nil, err
	}
	return &indexRow{
		GrantID:    grant.ID,
		ListID:     list.ID,
		Name:       list.Name,
		OwnerEmail: ownerEmail,
		ItemCount:  count,
		IsOwner:    grant.Owner,
	}, nil
}

// Index shows every list the user holds a grant for.
func (h *TemplateHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	userID := auth.UserID(r.Context())
	lists, err := h.lists.ListForUser(userID)
	if err != nil {
		h.logger.Error("load index", "error", err)
		http.Error(w, "failed to load lists", http.StatusInternalServerError)
		return
	}

	rows := make([]indexRow, 0, len(lists))
	for i := range lists {
		row, err := h.buildIndexRow(&lists[i], userID)
		if err != nil {
			h.logger.Error("build index row", "error", err)
			http.Error(w, "failed to load lists", http.StatusInternalServerError)
			return
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}

	h.render(w, "index.html", map[string]any{
		"Title":  "My Grocery Lists",
		"Handle": auth.Handle(r.Context()),
		"Rows":   rows,
	})
}

// loadListPage resolves the list and checks read access. Returns nil after
// writing the response when the page must not render.
func (h *TemplateHandler) loadListPage(w http.ResponseWriter, r *http.Request) *model.GroceryList {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil
	}

	list, err := h.lists.GetByID(id)
	if err != nil {
		h.logger.Error("load list", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return nil
	}
	if list == nil {
		// Deleted under us — back to the index.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil
	}

	ok, err := h.access.CanRead(auth.UserID(r.Context()), list.ID)
	if err != nil {
		h.logger.Error("check access", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return nil
	}
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}
	return list
}

// EditPage lists items with add/remove controls; the owner can also rename.
func (h *TemplateHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	list := h.loadListPage(w, r)
	if list == nil {
		return
	}

	userID := auth.UserID(r.Context())
	items, err := h.items.ListByList(list.ID)
	if err != nil {
		h.logger.Error("load items", "error", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}
	grant, err := h.grants.GetByListAndUser(list.ID, userID)
	if err != nil || grant == nil {
		h.logger.Error("load grant", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}
	ownerName, err := h.grants.OwnerName(list.ID)
	if err != nil {
		h.logger.Error("load owner", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}
	isOwner, err := h.access.IsOwner(userID, list.ID)
	if err != nil {
		h.logger.Error("check owner", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}

	h.render(w, "edit.html", map[string]any{
		"Title":     "Edit Grocery List",
		"List":      list,
		"Items":     items,
		"OwnerName": ownerName,
		"IsOwner":   isOwner,
		"GrantID":   grant.ID,
	})
}

// ShoppingPage lists items with shopped checkboxes.
func (h *TemplateHandler) ShoppingPage(w http.ResponseWriter, r *http.Request) {
	list := h.loadListPage(w, r)
	if list == nil {
		return
	}

	items, err := h.items.ListByList(list.ID)
	if err != nil {
		h.logger.Error("load items", "error", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}
	grant, err := h.grants.GetByListAndUser(list.ID, auth.UserID(r.Context()))
	if err != nil || grant == nil {
		h.logger.Error("load grant", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}

	h.render(w, "shopping.html", map[string]any{
		"Title":   "Shopping",
		"List":    list,
		"Items":   items,
		"GrantID": grant.ID,
	})
}

// PermissionsPage shows the additional (non-owner) grants. Owner only.
func (h *TemplateHandler) PermissionsPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	list, err := h.lists.GetByID(id)
	if err != nil {
		h.logger.Error("load list", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}
	if list == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	owner, err := h.access.IsOwner(auth.UserID(r.Context()), list.ID)
	if err != nil {
		h.logger.Error("check owner", "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}
	if !owner {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	grants, err := h.grants.ListAdditionalWithEmail(list.ID)
	if err != nil {
		h.logger.Error("load grants", "error", err)
		http.Error(w, "failed to load permissions", http.StatusInternalServerError)
		return
	}

	h.render(w, "permissions.html", map[string]any{
		"Title":  "Grocery List Permissions",
		"List":   list,
		"Grants": grants,
	})
}

// --- Row fragments ---

// ListRow returns a full index row for a list, keyed by the caller's grant.
func (h *TemplateHandler) ListRow(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	list, err := h.lists.GetByID(id)
	if err != nil || list == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	row, err := h.buildIndexRow(list, auth.UserID(r.Context()))
	if err != nil || row == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.render(w, "list-row", row)
}

// ListMeta returns the inner cells of an index row, for in-place refresh
// after a rename or item-count change.
func (h *TemplateHandler) ListMeta(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	list, err := h.lists.GetByID(id)
	if err != nil || list == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	row, err := h.buildIndexRow(list, auth.UserID(r.Context()))
	if err != nil || row == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.render(w, "list-row-cells", row)
}

// ItemRow returns an edit-page row for an item.
func (h *TemplateHandler) ItemRow(w http.ResponseWriter, r *http.Request) {
	item := h.loadItemFragment(w, r)
	if item == nil {
		return
	}
	h.render(w, "item-row", item)
}

// ShopRow returns a shopping-page row for an item, checkbox state included.
func (h *TemplateHandler) ShopRow(w http.ResponseWriter, r *http.Request) {
	item := h.loadItemFragment(w, r)
	if item == nil {
		return
	}
	h.render(w, "shop-row", item)
}

func (h *TemplateHandler) loadItemFragment(w http.ResponseWriter, r *http.Request) *model.GroceryItem {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	item, err := h.items.GetByID(id)
	if err != nil || item == nil {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	ok, err := h.access.CanRead(auth.UserID(r.Context()), item.ListID)
	if err != nil || !ok {
		w.WriteHeader(http.StatusOK)
		return nil
	}
	return item
}

// PermissionRow returns a permissions-page row for a grant. Owner only.
func (h *TemplateHandler) PermissionRow(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	gu, err := h.grants.GetWithEmail(id)
	if err != nil || gu == nil || gu.Grant.Owner {
		w.WriteHeader(http.StatusOK)
		return
	}

	owner, err := h.access.IsOwner(auth.UserID(r.Context()), gu.Grant.ListID)
	if err != nil || !owner {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.render(w, "permission-row", gu)
}
