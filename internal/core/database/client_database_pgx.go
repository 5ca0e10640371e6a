package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

// NewDatabaseClient connects to Postgres and bootstraps the schema. When
// sslCertPath is set the connection verifies the server against it.
func NewDatabaseClient(ctx context.Context, databaseURL, sslCertPath string, logger *zap.Logger) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn, err := withSSL(databaseURL, sslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctxPing, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	logger.Info("connected to registration database")
	return &DatabaseClient{db: db}, nil
}

func withSSL(databaseURL, sslCertPath string) (string, error) {
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) FindContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	const q = `
		SELECT id, phone, created_at, updated_at, last_interaction
		FROM contact WHERE phone = $1
	`
	var ct models.Contact
	var last sql.NullTime
	err := c.db.QueryRowContext(ctx, q, phone).Scan(&ct.ID, &ct.Phone, &ct.CreatedAt, &ct.UpdatedAt, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	if last.Valid {
		ct.LastInteraction = &last.Time
	}
	return &ct, nil
}

func (c *DatabaseClient) CreateContact(ctx context.Context, phone string) (*models.Contact, error) {
	const q = `
		INSERT INTO contact (phone) VALUES ($1)
		RETURNING id, phone, created_at, updated_at
	`
	var ct models.Contact
	if err := c.db.QueryRowContext(ctx, q, phone).Scan(&ct.ID, &ct.Phone, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &ct, nil
}

func (c *DatabaseClient) TouchContact(ctx context.Context, contactID int64) error {
	const q = `
		UPDATE contact
		SET last_interaction = now(), updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, contactID)
	if err != nil {
		return fmt.Errorf("touch contact: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("contact not found: %d", contactID)
	}
	return nil
}

func (c *DatabaseClient) FindClientProfileByContactID(ctx context.Context, contactID int64) (*models.ClientProfile, error) {
	const q = `
		SELECT id, contact_id, segment, full_name, email, address, cedula, created_at, updated_at
		FROM client_profiles WHERE contact_id = $1
	`
	var p models.ClientProfile
	err := c.db.QueryRowContext(ctx, q, contactID).Scan(
		&p.ID, &p.ContactID, &p.Segment, &p.FullName, &p.Email, &p.Address, &p.Cedula, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client profile: %w", err)
	}
	return &p, nil
}

func (c *DatabaseClient) CreateClientProfile(ctx context.Context, p *models.ClientProfile) error {
	if p == nil {
		return errors.New("nil client profile")
	}
	const q = `
		INSERT INTO client_profiles
			(id, contact_id, segment, full_name, email, address, cedula)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, q,
		p.ID, p.ContactID, p.Segment, p.FullName, p.Email, p.Address, p.Cedula,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client profile: %w", err)
	}
	return nil
}

var _ DbClient = (*DatabaseClient)(nil)
