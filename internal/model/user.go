package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Handle       string    `json:"handle"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
