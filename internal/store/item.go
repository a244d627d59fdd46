package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/pantrylist/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var shopped int

	err := scanner.Scan(&item.ID, &item.ListID, &item.Name, &item.Quantity, &shopped, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Shopped = shopped != 0
	return &item, nil
}

const itemCols = `id, list_id, name, quantity, shopped, created_at`

func (s *ItemStore) Create(listID int64, name, quantity string) (*model.GroceryItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO grocery_items (list_id, name, quantity) VALUES (?, ?, ?)`,
		listID, name, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ItemStore) GetByID(id int64) (*model.GroceryItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM grocery_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ItemStore) ListByList(listID int64) ([]model.GroceryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM grocery_items WHERE list_id = ? ORDER BY created_at ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SetShopped writes the shopped flag. Writing the current value again is a
// no-op at the row level, which keeps the operation idempotent.
func (s *ItemStore) SetShopped(id int64, shopped bool) (*model.GroceryItem, error) {
	flag := 0
	if shopped {
		flag = 1
	}
	_, err := s.db.Exec(`UPDATE grocery_items SET shopped = ? WHERE id = ?`, flag, id)
	if err != nil {
		return nil, fmt.Errorf("set shopped: %w", err)
	}
	return s.GetByID(id)
}

func (s *ItemStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// CountByList returns the number of items on a list. Kept as an explicit
// query so index rows never depend on a loaded item collection.
func (s *ItemStore) CountByList(listID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM grocery_items WHERE list_id = ?`, listID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
