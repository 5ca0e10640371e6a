package identity

import (
	"sort"
	"strings"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Error lists the failing fields in a stable order.
func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Chat intake form fields.
const (
	FieldName       = "name"
	FieldNationalID = "nationalId"
	FieldEmail      = "email"
	FieldPhone      = "phone"
)

// Registration page fields.
const (
	FieldFullName = "fullName"
	FieldCedula   = "cedula"
	FieldAddress  = "address"
	FieldSegment  = "segment"
)

// ValidateUserInfo checks the chat intake form. Every field is judged on its
// own value; nil means the form is acceptable.
func ValidateUserInfo(info models.UserInfo) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(info.Name) == "" {
		errs[FieldName] = "El nombre es requerido"
	}

	switch id := strings.TrimSpace(info.NationalID); {
	case id == "":
		errs[FieldNationalID] = "La cédula o RUC es requerida"
	case !ValidateEcuadorianID(id):
		errs[FieldNationalID] = "La cédula o RUC no es válida"
	}

	switch email := strings.TrimSpace(info.Email); {
	case email == "":
		errs[FieldEmail] = "El email es requerido"
	case !IsValidEmail(email):
		errs[FieldEmail] = "El email no es válido"
	}

	switch phone := strings.TrimSpace(info.Phone); {
	case phone == "":
		errs[FieldPhone] = "El teléfono es requerido"
	case !IsValidPhone(phone):
		errs[FieldPhone] = "El teléfono debe tener entre 10 y 15 dígitos"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRegisterForm checks the standalone registration page form.
func ValidateRegisterForm(form models.RegisterForm) FieldErrors {
	errs := FieldErrors{}

	switch name := strings.TrimSpace(form.FullName); {
	case name == "":
		errs[FieldFullName] = "El nombre es requerido"
	case len([]rune(name)) < 3:
		errs[FieldFullName] = "El nombre debe tener al menos 3 caracteres"
	}

	cedula := strings.TrimSpace(form.Cedula)
	switch {
	case cedula == "":
		errs[FieldCedula] = "La cédula o RUC es requerida"
	case len(cedula) == 10:
		if !ValidateEcuadorianID(cedula) {
			errs[FieldCedula] = "La cédula no es válida"
		}
	case len(cedula) == 13:
		if !ValidateEcuadorianID(cedula[:10]) {
			errs[FieldCedula] = "El RUC no es válido"
		}
		if !strings.HasSuffix(cedula, "001") {
			errs[FieldCedula] = "El RUC debe terminar en 001"
		}
	default:
		errs[FieldCedula] = "La cédula debe tener 10 dígitos o el RUC 13 dígitos"
	}

	switch email := strings.TrimSpace(form.Email); {
	case email == "":
		errs[FieldEmail] = "El email es requerido"
	case !IsValidEmail(email):
		errs[FieldEmail] = "El email no es válido"
	}

	switch address := strings.TrimSpace(form.Address); {
	case address == "":
		errs[FieldAddress] = "La dirección es requerida"
	case len([]rune(address)) < 10:
		errs[FieldAddress] = "La dirección debe ser más específica"
	}

	if form.Segment != "" && !form.Segment.Valid() {
		errs[FieldSegment] = "El segmento no es válido"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
