package identitystore

import (
	"bytes"
	"context"
	"errors"

	"github.com/markdave123-py/alemana-chat/internal/core"
	objectclient "github.com/markdave123-py/alemana-chat/internal/core/object-client"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// ObjectStore keeps one JSON object per visitor in a bucket.
type ObjectStore struct {
	client core.ObjectClient
	bucket string
}

func NewObjectStore(client core.ObjectClient, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

func (o *ObjectStore) Load(ctx context.Context, visitorID string) (*models.UserInfo, error) {
	data, err := o.client.GetFile(ctx, o.bucket, Key(visitorID)+".json")
	if errors.Is(err, objectclient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (o *ObjectStore) Save(ctx context.Context, visitorID string, info models.UserInfo) error {
	data, err := encode(info)
	if err != nil {
		return err
	}
	_, err = o.client.UploadFile(ctx, o.bucket, Key(visitorID)+".json", bytes.NewReader(data), "application/json")
	return err
}

var _ core.IdentityStore = (*ObjectStore)(nil)
