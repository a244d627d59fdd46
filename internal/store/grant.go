package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/pantrylist/internal/model"
)

type GrantStore struct {
	db *sql.DB
}

func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

func scanGrant(scanner interface{ Scan(...any) error }) (*model.AccessGrant, error) {
	var g model.AccessGrant
	var owner int
	err := scanner.Scan(&g.ID, &g.ListID, &g.UserID, &owner, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.Owner = owner != 0
	return &g, nil
}

const grantCols = `id, list_id, user_id, owner, created_at`

// Create inserts a non-owner grant. Owner grants are only ever created
// together with their list in ListStore.Create.
func (s *GrantStore) Create(listID, userID int64) (*model.AccessGrant, error) {
	result, err := s.db.Exec(
		`INSERT INTO access_grants (list_id, user_id, owner) VALUES (?, ?, 0)`,
		listID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GrantStore) GetByID(id int64) (*model.AccessGrant, error) {
	row := s.db.QueryRow(`SELECT `+grantCols+` FROM access_grants WHERE id = ?`, id)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

func (s *GrantStore) GetByListAndUser(listID, userID int64) (*model.AccessGrant, error) {
	row := s.db.QueryRow(
		`SELECT `+grantCols+` FROM access_grants WHERE list_id = ? AND user_id = ?`,
		listID, userID,
	)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grant by list and user: %w", err)
	}
	return g, nil
}

// ListAdditional returns all non-owner grants for a list.
func (s *GrantStore) ListAdditional(listID int64) ([]model.AccessGrant, error) {
	rows, err := s.db.Query(
		`SELECT `+grantCols+` FROM access_grants WHERE list_id = ? AND owner = 0 ORDER BY created_at ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list additional grants: %w", err)
	}
	defer rows.Close()

	var grants []model.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

func (s *GrantStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM access_grants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

// GrantUser pairs a grant with the email of the granted user, for the
// permissions page.
type GrantUser struct {
	Grant model.AccessGrant
	Email string
}

func (s *GrantStore) GetWithEmail(id int64) (*GrantUser, error) {
	row := s.db.QueryRow(
		`SELECT g.id, g.list_id, g.user_id, g.owner, g.created_at, u.email
		 FROM access_grants g
		 JOIN users u ON u.id = g.user_id
		 WHERE g.id = ?`,
		id,
	)
	var gu GrantUser
	var owner int
	err := row.Scan(&gu.Grant.ID, &gu.Grant.ListID, &gu.Grant.UserID, &owner, &gu.Grant.CreatedAt, &gu.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grant with email: %w", err)
	}
	gu.Grant.Owner = owner != 0
	return &gu, nil
}

// ListAdditionalWithEmail returns the non-owner grants for a list together
// with each granted user's email.
func (s *GrantStore) ListAdditionalWithEmail(listID int64) ([]GrantUser, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.list_id, g.user_id, g.owner, g.created_at, u.email
		 FROM access_grants g
		 JOIN users u ON u.id = g.user_id
		 WHERE g.list_id = ? AND g.owner = 0
		 ORDER BY g.created_at ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list additional grants with email: %w", err)
	}
	defer rows.Close()

	var grants []GrantUser
	for rows.Next() {
		var gu GrantUser
		var owner int
		if err := rows.Scan(&gu.Grant.ID, &gu.Grant.ListID, &gu.Grant.UserID, &owner, &gu.Grant.CreatedAt, &gu.Email); err != nil {
			return nil, fmt.Errorf("scan grant with email: %w", err)
		}
		gu.Grant.Owner = owner != 0
		grants = append(grants, gu)
	}
	return grants, rows.Err()
}

// OwnerEmail resolves the email of the user holding the owner grant for a
// list. Returns empty string if the list (or its owner grant) is gone.
func (s *GrantStore) OwnerEmail(listID int64) (string, error) {
	var email string
	err := s.db.QueryRow(
		`SELECT u.email FROM access_grants g
		 JOIN users u ON u.id = g.user_id
		 WHERE g.list_id = ? AND g.owner = 1`,
		listID,
	).Scan(&email)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("owner email: %w", err)
	}
	return email, nil
}

// OwnerName resolves the display name of the list owner.
func (s *GrantStore) OwnerName(listID int64) (string, error) {
	var name string
	err := s.db.QueryRow(
		`SELECT u.name FROM access_grants g
		 JOIN users u ON u.id = g.user_id
		 WHERE g.list_id = ? AND g.owner = 1`,
		listID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("owner name: %w", err)
	}
	return name, nil
}
