package form

import (
	"bytes"
	"testing"

	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, v View) string {
	t.Helper()
	page, err := NewPage("Válido del 21 al 25 de octubre 2024")
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, page.Render(buf, v))
	return buf.String()
}

func TestRenderForm(t *testing.T) {
	out := render(t, View{
		Values:       registration.Request{Nombre: "Ana<script>"},
		Errors:       FieldErrors{"telefono": "Debe ingresar su teléfono"},
		ErrorMessage: "Error al obtener datos.",
	})

	assert.Contains(t, out, `id="promo-form"`)
	assert.Contains(t, out, "Debe ingresar su teléfono")
	assert.Contains(t, out, "Error al obtener datos.")
	assert.Contains(t, out, "Ana&lt;script&gt;")
	assert.NotContains(t, out, "duplicate-modal")
	assert.NotContains(t, out, "discount-code")
}

func TestRenderSuccess(t *testing.T) {
	out := render(t, View{State: StateSuccess, Name: "Ana", DiscountCode: "OMW-1234"})

	assert.Contains(t, out, "Felicidades, Ana")
	assert.Contains(t, out, "OMW-1234")
	assert.Contains(t, out, "Válido del 21 al 25 de octubre 2024")
	assert.Contains(t, out, `class="confetti"`)
	assert.NotContains(t, out, `id="promo-form"`)
}

func TestRenderDuplicate(t *testing.T) {
	out := render(t, View{State: StateDuplicate, Name: "Ana Lopez", DiscountCode: "OMW-0042"})

	assert.Contains(t, out, `id="duplicate-modal"`)
	assert.Contains(t, out, "Ana Lopez")
	assert.Contains(t, out, "OMW-0042")
	assert.Contains(t, out, `id="promo-form"`)
}
