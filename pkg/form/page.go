package form

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Geniuskaa/promo_registration/pkg/registration"
)

//go:embed templates/*.html
var templates embed.FS

type State int

const (
	StateForm State = iota
	StateSuccess
	StateDuplicate
)

// View is everything the page template needs for one of its three states.
type View struct {
	State        State
	Values       registration.Request
	Errors       FieldErrors
	ErrorMessage string
	Name         string
	DiscountCode string
	Validity     string
}

func (v View) IsSuccess() bool   { return v.State == StateSuccess }
func (v View) IsDuplicate() bool { return v.State == StateDuplicate }

type Page struct {
	tmpl     *template.Template
	validity string
}

func NewPage(validity string) (*Page, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("template.ParseFS failed: %w", err)
	}
	return &Page{tmpl: tmpl, validity: validity}, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (p *Page) Render(w io.Writer, v View) error {
	if v.Errors == nil {
		v.Errors = FieldErrors{}
	}
	v.Validity = p.validity

	buf := new(bytes.Buffer)
	if err := p.tmpl.ExecuteTemplate(buf, "index.html", v); err != nil {
		return fmt.Errorf("tmpl.Execute failed: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
