package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Geniuskaa/promo_registration/pkg/form"
	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/Geniuskaa/promo_registration/pkg/rowstore"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Messages shown to the visitor, kept in the promo's language.
const (
	msgCreated     = "Cliente registrado con éxito."
	msgDuplicate   = "El cliente ya está registrado."
	msgMissing     = "Faltan datos requeridos."
	msgBadBody     = "Cuerpo de solicitud inválido."
	msgConfigError = "Error de configuración."
	msgStoreError  = "Error al obtener datos."
	msgRetry       = "Ocurrió un error. Inténtalo de nuevo."
)

const maxBodyBytes = 1 << 20

type response struct {
	Message      string `json:"message"`
	Name         string `json:"name,omitempty"`
	DiscountCode string `json:"discountCode,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// saveData handles POST /api/saveData.
// A duplicate is answered with 400 and still carries the stored name and code.
func (s *Server) saveData(w http.ResponseWriter, r *http.Request) {
	var req registration.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: msgBadBody})
		return
	}

	res, err := s.regServ.Register(r.Context(), req)
	if err != nil {
		status, msg := s.failure(r, err)
		writeJSON(w, status, response{Message: msg})
		return
	}

	switch res.Outcome {
	case registration.Duplicate:
		writeJSON(w, http.StatusBadRequest, response{Message: msgDuplicate, Name: res.Name, DiscountCode: res.DiscountCode})
	default:
		writeJSON(w, http.StatusOK, response{Message: msgCreated, Name: res.Name, DiscountCode: res.DiscountCode})
	}
}

func (s *Server) formPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, form.View{})
}

// formSubmit handles the form post of the promo page. Field formats are checked
// here so obviously wrong input never reaches the row-store.
func (s *Server) formSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, form.View{ErrorMessage: msgRetry})
		return
	}

	req := registration.Request{
		Nombre:    r.PostFormValue("nombre"),
		Apellido:  r.PostFormValue("apellido"),
		Telefono:  r.PostFormValue("telefono"),
		Direccion: r.PostFormValue("direccion"),
	}

	if errs := form.Validate(req); len(errs) > 0 {
		s.renderPage(w, r, http.StatusUnprocessableEntity, form.View{Values: req, Errors: errs})
		return
	}

	res, err := s.regServ.Register(r.Context(), req)
	if err != nil {
		status, msg := s.failure(r, err)
		s.renderPage(w, r, status, form.View{Values: req, ErrorMessage: msg})
		return
	}

	view := form.View{Values: req, Name: res.Name, DiscountCode: res.DiscountCode, State: form.StateSuccess}
	if res.Outcome == registration.Duplicate {
		view.State = form.StateDuplicate
	}
	s.renderPage(w, r, http.StatusOK, view)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, view form.View) {
	buf := new(bytes.Buffer)
	if err := s.page.Render(buf, view); err != nil {
		s.logger.Error("page render failed", zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		http.Error(w, msgRetry, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// failure maps a registration error to a status and a message that leaks no detail.
func (s *Server) failure(r *http.Request, err error) (int, string) {
	reqID := zap.String("request_id", middleware.GetReqID(r.Context()))

	switch {
	case errors.Is(err, registration.ErrMissingFields):
		return http.StatusBadRequest, msgMissing
	case errors.Is(err, rowstore.ErrNotConfigured):
		s.logger.Error("row-store credentials are not configured", zap.Error(err), reqID)
		return http.StatusInternalServerError, msgConfigError
	default:
		s.logger.Error("row-store interaction failed", zap.Error(err), reqID)
		return http.StatusInternalServerError, msgStoreError
	}
}
