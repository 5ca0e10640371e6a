package identitystore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/alemana-chat/internal/core"
	objectclient "github.com/markdave123-py/alemana-chat/internal/core/object-client"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

var ana = models.UserInfo{
	Name:       "Ana Ruiz",
	NationalID: "1710034065",
	Email:      "ana@x.ec",
	Phone:      "0991234567",
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, store core.IdentityStore) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing saved yet")

	require.NoError(t, store.Save(ctx, "visitor-1", ana))

	got, err = store.Load(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ana, *got)

	other, err := store.Load(ctx, "visitor-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	updated := ana
	updated.Phone = "0987654321"
	require.NoError(t, store.Save(ctx, "visitor-1", updated))

	got, err = store.Load(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0987654321", got.Phone)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "ids", "identities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identities.db")

	store, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "visitor-1", ana))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ana, *got)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjects) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = b
	return "https://" + bucket + "/" + key, nil
}

func (f *fakeObjects) DeleteFile(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", objectclient.ErrNotFound, key)
	}
	return b, nil
}

func (f *fakeObjects) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	b, err := f.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestObjectStore(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{}}
	exerciseStore(t, NewObjectStore(objects, "bucket"))

	raw, ok := objects.objects["bucket/"+Key("visitor-1")+".json"]
	require.True(t, ok)
	assert.JSONEq(t, `{"userInfo":{"name":"Ana Ruiz","id":"1710034065","email":"ana@x.ec","phone":"0987654321"}}`, string(raw))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestDecodeEmptyBlob(t *testing.T) {
	info, err := decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, info)
}
