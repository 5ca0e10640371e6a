package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core"
	db "github.com/markdave123-py/alemana-chat/internal/core/database"
	"github.com/markdave123-py/alemana-chat/internal/core/identity"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

var (
	ErrProfileExists = errors.New("client profile already exists")
	ErrInvalidPhone  = errors.New("phone must be 10 to 15 digits")
)

// Registration is the outcome of a successful RegisterClient.
type Registration struct {
	Contact      *models.Contact       `json:"contact"`
	Profile      *models.ClientProfile `json:"profile"`
	IsNewContact bool                  `json:"isNewContact"`
}

// RegistrationService records clients in the CRM database: one contact per
// phone, at most one profile per contact.
type RegistrationService struct {
	db  db.DbClient
	log *zap.Logger
}

func NewRegistrationService(client db.DbClient, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{db: client, log: logger}
}

// RegisterClient serves the registration page. The form is validated first;
// an identity.FieldErrors error lists the offending fields.
func (s *RegistrationService) RegisterClient(ctx context.Context, phone string, form models.RegisterForm) (*Registration, error) {
	if !identity.IsValidPhoneDigits(phone) {
		return nil, ErrInvalidPhone
	}
	form = trimForm(form)
	if errs := identity.ValidateRegisterForm(form); errs != nil {
		return nil, errs
	}

	contact, isNew, err := s.contactFor(ctx, phone)
	if err != nil {
		return nil, err
	}

	existing, err := s.db.FindClientProfileByContactID(ctx, contact.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	profile := &models.ClientProfile{
		ID:        uuid.NewString(),
		ContactID: contact.ID,
		Segment:   form.Segment,
		FullName:  form.FullName,
		Email:     form.Email,
		Address:   form.Address,
		Cedula:    form.Cedula,
	}
	if err := s.db.CreateClientProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.log.Info("client registered",
		zap.Int64("contact_id", contact.ID),
		zap.Bool("new_contact", isNew),
		zap.String("segment", string(form.Segment)))
	return &Registration{Contact: contact, Profile: profile, IsNewContact: isNew}, nil
}

// Register records an identity captured by the chat widget as a web lead.
// A contact that already has a profile counts as registered.
func (s *RegistrationService) Register(ctx context.Context, info models.UserInfo) (models.RegistrationResult, error) {
	phone := strings.TrimPrefix(identity.FormatPhoneNumber(info.Phone), "+")

	contact, _, err := s.contactFor(ctx, phone)
	if err != nil {
		return models.RegistrationResult{}, err
	}
	existing, err := s.db.FindClientProfileByContactID(ctx, contact.ID)
	if err != nil {
		return models.RegistrationResult{}, err
	}
	if existing != nil {
		return models.RegistrationResult{Success: true, Message: "Cliente ya registrado"}, nil
	}

	profile := &models.ClientProfile{
		ID:        uuid.NewString(),
		ContactID: contact.ID,
		Segment:   models.SegmentWebLead,
		FullName:  info.Name,
		Email:     info.Email,
		Cedula:    info.NationalID,
	}
	if err := s.db.CreateClientProfile(ctx, profile); err != nil {
		return models.RegistrationResult{}, err
	}
	return models.RegistrationResult{Success: true, Message: "Cliente registrado correctamente"}, nil
}

// contactFor finds the contact for phone, touching its last interaction, or
// creates it.
func (s *RegistrationService) contactFor(ctx context.Context, phone string) (*models.Contact, bool, error) {
	contact, err := s.db.FindContactByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if contact != nil {
		if err := s.db.TouchContact(ctx, contact.ID); err != nil {
			return nil, false, err
		}
		return contact, false, nil
	}

	contact, err = s.db.CreateContact(ctx, phone)
	if err != nil {
		return nil, false, fmt.Errorf("create contact: %w", err)
	}
	return contact, true, nil
}

// trimForm also defaults an empty segment to SegmentNew.
func trimForm(f models.RegisterForm) models.RegisterForm {
	out := models.RegisterForm{
		FullName: strings.TrimSpace(f.FullName),
		Cedula:   strings.TrimSpace(f.Cedula),
		Email:    strings.TrimSpace(f.Email),
		Address:  strings.TrimSpace(f.Address),
		Segment:  models.ClientSegment(strings.TrimSpace(string(f.Segment))),
	}
	if out.Segment == "" {
		out.Segment = models.SegmentNew
	}
	return out
}

var _ core.Registrar = (*RegistrationService)(nil)
