package models

import (
	"time"
)

// Role identifies who produced a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage represents one turn of a chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserInfo is the identity captured by the intake form.
type UserInfo struct {
	Name       string `json:"name"`
	NationalID string `json:"id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// RegistrationResult is what an external registrar reports back.
type RegistrationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact is a phone number known to the CRM.
type Contact struct {
	ID              int64      `db:"id" json:"id"`
	Phone           string     `db:"phone" json:"phone"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	LastInteraction *time.Time `db:"last_interaction" json:"last_interaction"`
}

// ClientSegment classifies a registered client.
type ClientSegment string

const (
	SegmentNew       ClientSegment = "new"
	SegmentWebLead   ClientSegment = "web_lead"
	SegmentRetail    ClientSegment = "retail"
	SegmentWholesale ClientSegment = "wholesale"
	SegmentCorporate ClientSegment = "corporate"
	SegmentPremium   ClientSegment = "premium"
)

// Valid reports whether s is one of the known segments.
func (s ClientSegment) Valid() bool {
	switch s {
	case SegmentNew, SegmentWebLead, SegmentRetail, SegmentWholesale, SegmentCorporate, SegmentPremium:
		return true
	}
	return false
}

// ClientProfile is the registered profile attached to a contact.
type ClientProfile struct {
	ID        string        `db:"id" json:"id"`
	ContactID int64         `db:"contact_id" json:"contact_id"`
	Segment   ClientSegment `db:"segment" json:"segment"`
	FullName  string        `db:"full_name" json:"full_name"`
	Email     string        `db:"email" json:"email"`
	Address   string        `db:"address" json:"address"`
	Cedula    string        `db:"cedula" json:"cedula"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// RegisterForm is the payload of the standalone registration page.
type RegisterForm struct {
	FullName string        `json:"fullName"`
	Cedula   string        `json:"cedula"`
	Email    string        `json:"email"`
	Address  string        `json:"address"`
	Segment  ClientSegment `json:"segment"`
}
