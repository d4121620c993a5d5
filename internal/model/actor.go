package model

import "github.com/google/uuid"

// Actor is the authenticated caller of an operation. It is never persisted.
type Actor struct {
	UserID     uuid.UUID
	Role       string
	BranchID   *uuid.UUID
	Privileged bool
}
