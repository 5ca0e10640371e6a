package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core/identity"
	"github.com/markdave123-py/alemana-chat/internal/models"
	"github.com/markdave123-py/alemana-chat/internal/services"
)

// PhoneOpener reads the phone number sealed into a registration link.
type PhoneOpener interface {
	Open(token string) (string, error)
}

// ClientRegistrar records a client from the registration page.
type ClientRegistrar interface {
	RegisterClient(ctx context.Context, phone string, form models.RegisterForm) (*services.Registration, error)
}

type RegistrationHandler struct {
	links     PhoneOpener
	registrar ClientRegistrar
	log       *zap.Logger
}

func NewRegistrationHandler(links PhoneOpener, registrar ClientRegistrar, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{links: links, registrar: registrar, log: logger}
}

type registerRequest struct {
	Data string `json:"data"`
	models.RegisterForm
}

type registerResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Phone   string            `json:"phone,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.links == nil || h.registrar == nil {
		writeJSON(w, http.StatusServiceUnavailable, registerResponse{Message: "El registro no está disponible"})
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "Solicitud inválida"})
		return
	}
	if req.Data == "" {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "Enlace inválido - No se proporcionó información"})
		return
	}

	phone, err := h.links.Open(req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "Enlace inválido - No se pudo descifrar la información"})
		return
	}

	reg, err := h.registrar.RegisterClient(r.Context(), phone, req.RegisterForm)
	var fieldErrs identity.FieldErrors
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, registerResponse{
			Success: true,
			Message: "¡Registro exitoso!",
			Phone:   "+" + reg.Contact.Phone,
		})
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, registerResponse{Message: "Revisa los datos del formulario", Fields: fieldErrs})
	case errors.Is(err, services.ErrInvalidPhone):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "Enlace inválido - Número de teléfono no válido"})
	case errors.Is(err, services.ErrProfileExists):
		writeJSON(w, http.StatusConflict, registerResponse{Message: "Ya existe un perfil registrado con este número de teléfono"})
	default:
		h.log.Error("client registration failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, registerResponse{Message: "Error al registrar. Por favor intenta nuevamente."})
	}
}
