package model

import "time"

type GroceryList struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GroceryItem struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	Name      string    `json:"name"`
	Quantity  string    `json:"quantity"`
	Shopped   bool      `json:"shopped"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessGrant links a user to a grocery list. Exactly one grant per list
// carries the owner flag; the list's owner is derived from that grant.
type AccessGrant struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	UserID    int64     `json:"user_id"`
	Owner     bool      `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}
