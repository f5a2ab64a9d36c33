// Package form renders the promo page and checks its fields before anything
// is sent to the registration service.
package form

import (
	"regexp"
	"strings"

	"github.com/Geniuskaa/promo_registration/pkg/registration"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{8}$`)
)

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

func Validate(req registration.Request) FieldErrors {
	errs := FieldErrors{}

	switch nombre := strings.TrimSpace(req.Nombre); {
	case nombre == "":
		errs["nombre"] = "Debe ingresar su nombre completo"
	case !namePattern.MatchString(nombre):
		errs["nombre"] = "El nombre solo puede contener letras sin espacios ni caracteres especiales"
	}

	switch apellido := strings.TrimSpace(req.Apellido); {
	case apellido == "":
		errs["apellido"] = "Debe ingresar su apellido"
	case !namePattern.MatchString(apellido):
		errs["apellido"] = "El apellido solo puede contener letras sin espacios ni caracteres especiales"
	}

	switch telefono := strings.TrimSpace(req.Telefono); {
	case telefono == "":
		errs["telefono"] = "Debe ingresar su teléfono"
	case !phonePattern.MatchString(telefono):
		errs["telefono"] = "El número de teléfono debe tener exactamente 8 dígitos, sin espacios ni caracteres especiales"
	}

	if strings.TrimSpace(req.Direccion) == "" {
		errs["direccion"] = "Debe ingresar su dirección"
	}

	return errs
}
