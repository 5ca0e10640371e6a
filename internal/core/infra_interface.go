package core

import (
	"context"
	"io"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

// IdentityStore keeps the captured identity of a visitor across reloads.
// Load returns (nil, nil) when nothing has been saved yet.
type IdentityStore interface {
	Load(ctx context.Context, visitorID string) (*models.UserInfo, error)
	Save(ctx context.Context, visitorID string, info models.UserInfo) error
}

// Registrar records a captured identity in an external system.
type Registrar interface {
	Register(ctx context.Context, info models.UserInfo) (models.RegistrationResult, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// DocumentExtractor turns a binary document into plain text.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error)
}
