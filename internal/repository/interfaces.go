package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/pricewatch/tracker-api/internal/model"
)

// All repository interfaces in one file
type (
	// AlertRepository handles alert persistence. (user_email, url) is a
	// database-enforced unique pair; Upsert is the atomic add-or-update path.
	AlertRepository interface {
		Upsert(ctx context.Context, alert *model.Alert) error
		Get(ctx context.Context, id uuid.UUID) (*model.Alert, error)
		GetByUserAndURL(ctx context.Context, email, url string) (*model.Alert, error)
		Update(ctx context.Context, alert *model.Alert) error
		DeleteByUserAndURL(ctx context.Context, email, url string) error
		ListActive(ctx context.Context) ([]*model.Alert, error)
		ListActiveByUser(ctx context.Context, email string) ([]*model.Alert, error)
	}

	// UserRepository persists identities resolved by the auth exchange.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}
)
