package domain

import "time"

// AdminID is the hex form of an admin's document id.
type AdminID string

type Admin struct {
	ID           AdminID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
