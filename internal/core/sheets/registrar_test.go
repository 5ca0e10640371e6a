package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

type fakeValues struct {
	column    [][]any
	getErr    error
	writeErr  error
	updated   map[string][]any
	appended  map[string][]any
	getRanges []string
}

func newFakeValues(column ...[]any) *fakeValues {
	return &fakeValues{column: column, updated: map[string][]any{}, appended: map[string][]any{}}
}

func (f *fakeValues) Get(_ context.Context, rng string) ([][]any, error) {
	f.getRanges = append(f.getRanges, rng)
	return f.column, f.getErr
}

func (f *fakeValues) Update(_ context.Context, rng string, row []any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updated[rng] = row
	return nil
}

func (f *fakeValues) Append(_ context.Context, rng string, row []any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.appended[rng] = row
	return nil
}

var ana = models.UserInfo{Name: "Ana Ruiz", NationalID: "1710034065", Email: "ana@x.ec", Phone: "0991234567"}

func newTestRegistrar(values ValuesAPI) *Registrar {
	r := NewRegistrar(values, "ControlAccesoWeb", zap.NewNop())
	r.now = func() time.Time { return time.Date(2024, 3, 5, 19, 4, 5, 0, time.UTC) }
	return r
}

func TestRegisterAppendsNewID(t *testing.T) {
	values := newFakeValues([]any{"Cédula"}, []any{"0926687856"})

	res, err := newTestRegistrar(values).Register(context.Background(), ana)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, msgSaved, res.Message)
	assert.Equal(t, []string{"ControlAccesoWeb!B:B"}, values.getRanges)
	assert.Empty(t, values.updated)
	assert.Equal(t, []any{"Ana Ruiz", "1710034065", "0991234567", "ana@x.ec", "5/3/2024, 14:04:05"}, values.appended["ControlAccesoWeb!A:E"])
}

func TestRegisterUpdatesKnownID(t *testing.T) {
	values := newFakeValues([]any{"Cédula"}, []any{}, []any{"1710034065"})

	res, err := newTestRegistrar(values).Register(context.Background(), ana)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, msgUpdated, res.Message)
	assert.Empty(t, values.appended)
	require.Contains(t, values.updated, "ControlAccesoWeb!A3:E3")
}

func TestRegisterReportsLookupFailure(t *testing.T) {
	values := newFakeValues()
	values.getErr = errors.New("403")

	res, err := newTestRegistrar(values).Register(context.Background(), ana)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, msgFailed, res.Message)
}

func TestRegisterReportsWriteFailure(t *testing.T) {
	values := newFakeValues()
	values.writeErr = errors.New("quota")

	res, err := newTestRegistrar(values).Register(context.Background(), ana)
	require.NoError(t, err)
	assert.False(t, res.Success)
}
