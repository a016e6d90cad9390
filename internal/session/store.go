package session

import (
	"context"

	"github.com/jutorials/backend/internal/models"
)

// Store holds ephemeral per-user withdrawal sessions. A session belongs to
// exactly one conversation; it is never shared across users and is not a
// transactional resource. Expiry is the store's concern (TTL); callers treat
// an absent session as "no withdrawal in progress".
type Store interface {
	// Get returns the user's session, or (nil, nil) when none exists.
	Get(ctx context.Context, userID int64) (*models.WithdrawalSession, error)
	Put(ctx context.Context, session *models.WithdrawalSession) error
	Delete(ctx context.Context, userID int64) error
}
