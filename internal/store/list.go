package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pantrylist/internal/model"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

func scanList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	err := scanner.Scan(&l.ID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const listCols = `id, name, created_at, updated_at`

// Create inserts the list and its owner grant in one transaction so that a
// list is never visible without an owner.
func (s *ListStore) Create(name string, ownerID int64) (*model.GroceryList, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO grocery_lists (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO access_grants (list_id, user_id, owner) VALUES (?, ?, 1)`,
		id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("insert owner grant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ListStore) GetByID(id int64) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM grocery_lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (s *ListStore) UpdateName(id int64, name string) (*model.GroceryList, error) {
	_, err := s.db.Exec(
		`UPDATE grocery_lists SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update list name: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the list. Items and grants go with it via foreign key
// cascade.
func (s *ListStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// ListForUser returns all lists the user holds a grant for, ordered by name.
func (s *ListStore) ListForUser(userID int64) ([]model.GroceryList, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.name, l.created_at, l.updated_at
		 FROM grocery_lists l
		 JOIN access_grants g ON l.id = g.list_id
		 WHERE g.user_id = ?
		 ORDER BY l.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists for user: %w", err)
	}
	defer rows.Close()

	var lists []model.GroceryList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}
