package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devthon-registration/internal/config"
	"devthon-registration/internal/metrics"
	"devthon-registration/internal/models"
	"devthon-registration/internal/payments"
	"devthon-registration/internal/registration"
	"devthon-registration/internal/store"
	"devthon-registration/internal/submission"
)

// FormIDHeader identifies the browser form a submit belongs to, so repeated
// clicks on one form share a submission session.
const FormIDHeader = "X-Form-ID"

type Handler struct {
	svc     *submission.Service
	pay     payments.PaymentProvider
	metrics *metrics.Metrics
	log     *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*submission.Session
}

func NewHandler(svc *submission.Service, pay payments.PaymentProvider, m *metrics.Metrics, log *slog.Logger, timeout time.Duration) *Handler {
	return &Handler{
		svc:      svc,
		pay:      pay,
		metrics:  m,
		log:      log,
		timeout:  timeout,
		sessions: map[string]*submission.Session{},
	}
}

func New(cfg config.Config, h *Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if h.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/fee", h.handleFee)
		r.Get("/teams/availability", h.handleAvailability)
		r.Post("/registrations/validate", h.handleValidate)
		r.Post("/registrations", h.handleSubmit)
	})
	return r
}

func (h *Handler) handleFee(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("members"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "members must be a number")
		return
	}
	writeJSON(w, http.StatusOK, registration.ComputeTotals(registration.ClampMemberCount(n)))
}

type availability struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Warning   string `json:"warning,omitempty"`
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if store.NameKey(name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	taken, err := h.svc.CheckName(ctx, name)
	if err != nil {
		// advisory only: the form may still be submitted
		h.log.WarnContext(ctx, "team name check failed", "request_id", middleware.GetReqID(ctx), "err", err)
		writeJSON(w, http.StatusOK, availability{Name: name, Available: true, Warning: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, availability{Name: name, Available: !taken})
}

type validateResponse struct {
	registration.Totals
	Payment payments.Instructions `json:"payment"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	form = form.Normalized()
	if err := registration.ValidateForSubmission(form); err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	totals := form.Totals()
	instr, err := payments.Instruct(r.Context(), h.pay, EnvironmentFrom(r), form.TeamName, totals.TotalFee)
	if err != nil {
		h.log.ErrorContext(r.Context(), "build payment instructions", "err", err)
		writeError(w, http.StatusInternalServerError, "could not build payment instructions")
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Totals: totals, Payment: instr})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	formID := r.Header.Get(FormIDHeader)
	sess := h.session(formID)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	conf, err := sess.Submit(ctx, form)
	h.release(formID, sess)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		*models.Confirmation
		Warnings []string `json:"warnings,omitempty"`
	}{conf, sess.Warnings()})
}

// session returns the session for a form id. Requests without an id get a
// fresh session each time.
func (h *Handler) session(formID string) *submission.Session {
	if formID == "" {
		return h.svc.NewSession()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[formID]
	if !ok {
		s = h.svc.NewSession()
		h.sessions[formID] = s
	}
	return s
}

// release drops the session of a finished attempt. A session another request
// is still submitting stays, so its in-flight guard keeps working.
func (h *Handler) release(formID string, sess *submission.Session) {
	if formID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[formID] != sess {
		return
	}
	switch sess.State() {
	case submission.StateSucceeded, submission.StateFailed:
		delete(h.sessions, formID)
	}
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *registration.ValidationError
		ce *registration.CapacityError
		se *store.StoreError
	)
	switch {
	case errors.Is(err, submission.ErrSubmissionInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ve) && errors.Is(err, store.ErrTeamNameTaken):
		writeFieldError(w, http.StatusConflict, ve.Field, ve.Message)
	case errors.Is(err, store.ErrTeamNameTaken):
		writeFieldError(w, http.StatusConflict, "team_name", "team name is already taken, please choose another")
	case errors.As(err, &ve):
		writeFieldError(w, http.StatusBadRequest, ve.Field, ve.Message)
	case errors.As(err, &ce):
		writeFieldError(w, http.StatusBadRequest, "team_members", ce.Error())
	case errors.As(err, &se):
		h.log.ErrorContext(r.Context(), "registration store failed",
			"request_id", middleware.GetReqID(r.Context()),
			"op", se.Op,
			"err", se.Err,
		)
		writeError(w, http.StatusBadGateway, se.Error())
	default:
		h.log.ErrorContext(r.Context(), "registration failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// EnvironmentFrom derives the payer's device class from the User-Agent.
func EnvironmentFrom(r *http.Request) payments.Environment {
	ua := useragent.New(r.UserAgent())
	return payments.Environment{IsMobileLike: ua.Mobile()}
}

