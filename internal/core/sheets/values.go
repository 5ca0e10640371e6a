package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ServiceValues talks to the Google Sheets v4 API with a service account.
type ServiceValues struct {
	srv           *sheetsapi.Service
	spreadsheetID string
}

func NewServiceValues(ctx context.Context, credentialsFile, spreadsheetID string) (*ServiceValues, error) {
	if credentialsFile == "" || spreadsheetID == "" {
		return nil, fmt.Errorf("sheets credentials file and sheet id are required")
	}
	srv, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &ServiceValues{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (v *ServiceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := v.srv.Spreadsheets.Values.Get(v.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *ServiceValues) Update(ctx context.Context, rng string, row []any) error {
	_, err := v.srv.Spreadsheets.Values.Update(v.spreadsheetID, rng, &sheetsapi.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (v *ServiceValues) Append(ctx context.Context, rng string, row []any) error {
	_, err := v.srv.Spreadsheets.Values.Append(v.spreadsheetID, rng, &sheetsapi.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

var _ ValuesAPI = (*ServiceValues)(nil)
