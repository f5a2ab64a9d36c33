package form

import (
	"testing"

	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := registration.Request{Nombre: "José", Apellido: "Muñoz", Telefono: "88887777", Direccion: "Managua"}

	tests := []struct {
		name   string
		modify func(r *registration.Request)
		fields []string
	}{
		{"valid", func(r *registration.Request) {}, nil},
		{"empty form", func(r *registration.Request) { *r = registration.Request{} }, []string{"nombre", "apellido", "telefono", "direccion"}},
		{"name with space", func(r *registration.Request) { r.Nombre = "Ana María" }, []string{"nombre"}},
		{"name with digits", func(r *registration.Request) { r.Apellido = "L0pez" }, []string{"apellido"}},
		{"short phone", func(r *registration.Request) { r.Telefono = "8888777" }, []string{"telefono"}},
		{"phone with dash", func(r *registration.Request) { r.Telefono = "8888-777" }, []string{"telefono"}},
		{"blank address", func(r *registration.Request) { r.Direccion = "  " }, []string{"direccion"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.modify(&req)

			errs := Validate(req)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, errs.Has(f), f)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	errs := Validate(registration.Request{Nombre: "Ana1", Telefono: "123"})

	assert.Equal(t, "El nombre solo puede contener letras sin espacios ni caracteres especiales", errs["nombre"])
	assert.Equal(t, "Debe ingresar su apellido", errs["apellido"])
	assert.Equal(t, "El número de teléfono debe tener exactamente 8 dígitos, sin espacios ni caracteres especiales", errs["telefono"])
	assert.Equal(t, "Debe ingresar su dirección", errs["direccion"])
}
