package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

func TestMultiRegistrarAllSucceed(t *testing.T) {
	a := &stubRegistrar{result: models.RegistrationResult{Success: true, Message: "Datos guardados correctamente"}}
	b := &stubRegistrar{result: models.RegistrationResult{Success: true, Message: "otro"}, delay: 5 * time.Millisecond}

	res, err := NewMultiRegistrar(a, nil, b).Register(context.Background(), models.UserInfo{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Datos guardados correctamente", res.Message)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestMultiRegistrarReportsFirstFailure(t *testing.T) {
	ok := &stubRegistrar{result: models.RegistrationResult{Success: true}}
	failed := &stubRegistrar{result: models.RegistrationResult{Success: false, Message: "Error al guardar"}}

	res, err := NewMultiRegistrar(ok, failed).Register(context.Background(), models.UserInfo{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Error al guardar", res.Message)
}

func TestMultiRegistrarErrorCancelsOthers(t *testing.T) {
	boom := errors.New("db down")
	failing := &stubRegistrar{err: boom}
	slow := &stubRegistrar{result: models.RegistrationResult{Success: true}, delay: time.Minute}

	start := time.Now()
	_, err := NewMultiRegistrar(failing, slow).Register(context.Background(), models.UserInfo{})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestMultiRegistrarEmpty(t *testing.T) {
	m := NewMultiRegistrar(nil)
	assert.Equal(t, 0, m.Len())
	res, err := m.Register(context.Background(), models.UserInfo{})
	require.NoError(t, err)
	assert.True(t, res.Success)
}
