package domain

import "time"

const DefaultPlan = "Free"

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash []byte
	Credits      int
	Plan         string
	CreatedAt    time.Time
}
