package model

import "time"

// User represents an account as stored in the `users` table.  The json tags
// are omitted because the password hash must never leave the service;
// handlers render their own response types.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Email          – unique email address.
//  Username       – unique login name and token subject.
//  HashedPassword – argon2id digest in PHC string form.
//  FullName       – optional display name.
//  IsActive       – inactive accounts may authenticate but are refused.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update (null until first update).
type User struct {
	ID             uint64     // users.id
	Email          string     // users.email
	Username       string     // users.username
	HashedPassword string     // users.hashed_password
	FullName       *string    // users.full_name (nullable)
	IsActive       bool       // users.is_active
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      *time.Time // users.updated_at (nullable)
}
