package memory

import (
	"time"

	"ballotbox/contexts/identity-access/account-service/domain/entities"
	"ballotbox/contexts/identity-access/account-service/ports"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "password"

// DemoUsers returns the demo accounts with ids matching the election demo
// board: one admin and two voters.
func DemoUsers(hasher ports.PasswordHasher, now time.Time) ([]entities.User, error) {
	hash, err := hasher.Hash(DemoPassword)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return []entities.User{
		{UserID: "1", Username: "admin", Email: "admin@example.com", Role: entities.RoleAdmin, PasswordHash: hash, CreatedAt: now},
		{UserID: "2", Username: "voter1", Email: "voter1@example.com", Role: entities.RoleVoter, PasswordHash: hash, CreatedAt: now},
		{UserID: "3", Username: "voter2", Email: "voter2@example.com", Role: entities.RoleVoter, PasswordHash: hash, CreatedAt: now},
	}, nil
}
