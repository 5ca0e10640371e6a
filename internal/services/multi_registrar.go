package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// MultiRegistrar fans a registration out to every configured registrar at
// once. It succeeds only when all of them do; the first unsuccessful result
// in registration order is reported otherwise.
type MultiRegistrar struct {
	registrars []core.Registrar
}

// NewMultiRegistrar skips nil registrars.
func NewMultiRegistrar(registrars ...core.Registrar) *MultiRegistrar {
	m := &MultiRegistrar{}
	for _, r := range registrars {
		if r != nil {
			m.registrars = append(m.registrars, r)
		}
	}
	return m
}

func (m *MultiRegistrar) Len() int { return len(m.registrars) }

func (m *MultiRegistrar) Register(ctx context.Context, info models.UserInfo) (models.RegistrationResult, error) {
	if len(m.registrars) == 0 {
		return models.RegistrationResult{Success: true}, nil
	}

	results := make([]models.RegistrationResult, len(m.registrars))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range m.registrars {
		g.Go(func() error {
			res, err := r.Register(gctx, info)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.RegistrationResult{}, err
	}

	for _, res := range results {
		if !res.Success {
			return res, nil
		}
	}
	return results[0], nil
}

var _ core.Registrar = (*MultiRegistrar)(nil)
