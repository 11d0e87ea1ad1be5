package models

import "time"

// User matches a row in the "users" table. Password is the bcrypt hash and is
// never serialized back to clients.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // admin, manager, employee
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
