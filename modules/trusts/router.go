package trusts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schooltrust/platform/core"
	"github.com/schooltrust/platform/pkg/trust"
)

// Handler mounts the provisioning API. Mount it under a system-only path
// prefix so the scope guard rejects any request carrying trust context
// before it reaches these routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleProvision)
	r.Get("/", s.handleList)
	r.Get("/{code}", s.handleGet)
	r.Put("/{code}/status", s.handleChangeStatus)

	return r
}

func (s *Service) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	t, err := s.Provision(r.Context(), req)
	if err != nil {
		render(w, r, core.JSONError(mapError(err)))
		return
	}
	render(w, r, core.JSONStatus(http.StatusCreated, "trust_created", t))
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.List(r.Context())
	if err != nil {
		render(w, r, core.JSONError(mapError(err)))
		return
	}
	render(w, r, core.JSON("trusts", list))
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		render(w, r, core.JSONError(mapError(err)))
		return
	}
	render(w, r, core.JSON("trust", t))
}

func (s *Service) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status trust.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	t, err := s.ChangeStatus(r.Context(), chi.URLParam(r, "code"), req.Status)
	if err != nil {
		render(w, r, core.JSONError(mapError(err)))
		return
	}
	render(w, r, core.JSON("trust_status_changed", t))
}

func render(w http.ResponseWriter, r *http.Request, resp core.Response) {
	_ = resp.Render(w, r)
}

// mapError translates provisioning errors into HTTP error values.
func mapError(err error) error {
	switch {
	case errors.Is(err, trust.ErrInvalidCode):
		return core.NewHTTPError(http.StatusBadRequest, "invalid_trust_code")
	case errors.Is(err, trust.ErrTrustNotFound):
		return core.NewHTTPError(http.StatusNotFound, "trust_not_found")
	case errors.Is(err, ErrCodeTaken):
		return core.NewHTTPError(http.StatusConflict, "trust_code_taken")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrArchived):
		return core.NewHTTPError(http.StatusUnprocessableEntity, "invalid_status_transition")
	default:
		return err
	}
}
