// Package sheets records chat identities in the access-control spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

const (
	msgUpdated = "Datos actualizados correctamente"
	msgSaved   = "Datos guardados correctamente"
	msgFailed  = "Error al guardar los datos. Por favor, inténtelo de nuevo más tarde."

	// dateLayout mirrors the es-EC locale string the sheet already holds.
	dateLayout = "2/1/2006, 15:04:05"
)

// ValuesAPI is the slice of the Sheets values resource the registrar uses.
type ValuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, row []any) error
	Append(ctx context.Context, rng string, row []any) error
}

// Registrar writes one row per national ID: name, ID, phone, email, date.
// A known ID updates its row in place.
type Registrar struct {
	values    ValuesAPI
	sheetName string
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewRegistrar(values ValuesAPI, sheetName string, logger *zap.Logger) *Registrar {
	return &Registrar{
		values:    values,
		sheetName: sheetName,
		loc:       guayaquil(),
		now:       time.Now,
		log:       logger,
	}
}

// guayaquil falls back to a fixed UTC-5 zone when tzdata is unavailable.
// Ecuador does not observe daylight saving time.
func guayaquil() *time.Location {
	loc, err := time.LoadLocation("America/Guayaquil")
	if err != nil {
		return time.FixedZone("ECT", -5*60*60)
	}
	return loc
}

// Register never returns an error: spreadsheet failures are reported through
// an unsuccessful result.
func (r *Registrar) Register(ctx context.Context, info models.UserInfo) (models.RegistrationResult, error) {
	row := []any{info.Name, info.NationalID, info.Phone, info.Email, r.now().In(r.loc).Format(dateLayout)}

	n, err := r.findRowByID(ctx, info.NationalID)
	if err != nil {
		r.log.Error("sheet lookup failed", zap.Error(err))
		return models.RegistrationResult{Success: false, Message: msgFailed}, nil
	}

	if n > 0 {
		rng := fmt.Sprintf("%s!A%d:E%d", r.sheetName, n, n)
		if err := r.values.Update(ctx, rng, row); err != nil {
			r.log.Error("sheet update failed", zap.String("range", rng), zap.Error(err))
			return models.RegistrationResult{Success: false, Message: msgFailed}, nil
		}
		return models.RegistrationResult{Success: true, Message: msgUpdated}, nil
	}

	if err := r.values.Append(ctx, r.sheetName+"!A:E", row); err != nil {
		r.log.Error("sheet append failed", zap.Error(err))
		return models.RegistrationResult{Success: false, Message: msgFailed}, nil
	}
	return models.RegistrationResult{Success: true, Message: msgSaved}, nil
}

// findRowByID returns the 1-based row holding id in column B, or 0.
func (r *Registrar) findRowByID(ctx context.Context, id string) (int, error) {
	rows, err := r.values.Get(ctx, r.sheetName+"!B:B")
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

var _ core.Registrar = (*Registrar)(nil)
