package db

import (
	"context"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

// DbClient defines the persistence operations of client registration.
// Finders return (nil, nil) when nothing matches.
type DbClient interface {
	FindContactByPhone(ctx context.Context, phone string) (*models.Contact, error)
	CreateContact(ctx context.Context, phone string) (*models.Contact, error)
	TouchContact(ctx context.Context, contactID int64) error

	FindClientProfileByContactID(ctx context.Context, contactID int64) (*models.ClientProfile, error)
	CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error

	Close() error
}
