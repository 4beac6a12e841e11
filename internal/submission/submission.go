// Package submission runs one registration attempt end to end:
// validate, check the team name, insert. Each presentation-layer form owns a
// Session, which carries the attempt state and the in-flight guard.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"devthon-registration/internal/metrics"
	"devthon-registration/internal/models"
	"devthon-registration/internal/registration"
	"devthon-registration/internal/store"
)

type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateCheckingName State = "checking_name"
	StateSubmitting   State = "submitting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// NameLocker reserves a team name across the uniqueness check and insert.
type NameLocker interface {
	Reserve(ctx context.Context, name string) (release func(), ok bool, err error)
}

// Notifier is told about every registration recorded as pending.
type Notifier interface {
	NotifyRegistration(ctx context.Context, reg models.Registration) error
}

type Service struct {
	store    store.Gateway
	locker   NameLocker
	notifier Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithNameLocker(l NameLocker) Option { return func(s *Service) { s.locker = l } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func New(gw store.Gateway, opts ...Option) *Service {
	s := &Service{
		store:  gw,
		log:    slog.Default(),
		tracer: otel.Tracer("devthon-registration/submission"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetNotifier replaces the notifier after construction; the Telegram app
// needs the service before it can be registered as a notifier.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// CheckName is the advisory uniqueness check used while the form is being
// filled in. Callers treat an error as a warning.
func (s *Service) CheckName(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	taken, err := s.store.IsTeamNameTaken(ctx, name)
	s.metrics.ObserveStore("query", time.Since(start).Seconds())
	switch {
	case err != nil:
		s.metrics.IncNameCheck("error")
	case taken:
		s.metrics.IncNameCheck("taken")
	default:
		s.metrics.IncNameCheck("available")
	}
	return taken, err
}

func (s *Service) insert(ctx context.Context, reg models.Registration) (string, error) {
	start := time.Now()
	id, err := s.store.Insert(ctx, reg)
	s.metrics.ObserveStore("insert", time.Since(start).Seconds())
	return id, err
}

func nameTaken() error {
	return &registration.ValidationError{
		Field:   "team_name",
		Message: "team name is already taken, please choose another",
		Err:     store.ErrTeamNameTaken,
	}
}

// Session is one form instance. It is safe for concurrent use; concurrent
// Submit calls beyond the first fail with ErrSubmissionInProgress.
type Session struct {
	svc *Service

	mu       sync.Mutex
	state    State
	inFlight bool
	warnings []string
	lastErr  error
}

func (s *Service) NewSession() *Session {
	return &Session{svc: s, state: StateIdle}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Warnings returns the non-fatal problems of the latest attempt.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// Err returns the error of the latest attempt if it failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) warn(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
}

// Submit validates, checks and inserts form. On success it returns the
// confirmation for the presentation layer. A failed attempt is terminal;
// calling Submit again starts over from idle.
func (s *Session) Submit(ctx context.Context, form registration.Form) (*models.Confirmation, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	s.inFlight = true
	s.state = StateIdle
	s.warnings = nil
	s.lastErr = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	svc := s.svc
	ctx, span := svc.tracer.Start(ctx, "submission.Submit")
	defer span.End()

	form = form.Normalized()
	log := svc.log.With("team", form.TeamName)

	s.setState(StateValidating)
	if err := registration.ValidateForSubmission(form); err != nil {
		return s.fail(span, "invalid", err)
	}
	if err := registration.ValidatePaymentReference(form.TransactionID); err != nil {
		return s.fail(span, "invalid", err)
	}

	s.setState(StateCheckingName)
	// the reservation is held from before the check until after the insert,
	// so the next holder's check sees this insert
	if svc.locker != nil {
		release, ok, err := svc.locker.Reserve(ctx, form.TeamName)
		switch {
		case err != nil:
			log.Warn("team name reservation failed, continuing", "err", err)
			s.warn("could not reserve team name: " + err.Error())
		case !ok:
			return s.fail(span, "name_taken", nameTaken())
		default:
			defer release()
		}
	}

	taken, err := svc.CheckName(ctx, form.TeamName)
	switch {
	case err != nil:
		log.Warn("team name check failed, continuing", "err", err)
		s.warn("could not verify team name availability: " + err.Error())
	case taken:
		return s.fail(span, "name_taken", nameTaken())
	}

	s.setState(StateSubmitting)
	reg := form.Registration()
	span.SetAttributes(
		attribute.Int("registration.total_members", reg.TotalMembers),
		attribute.Int("registration.total_fee", reg.TotalFee),
	)
	id, err := svc.insert(ctx, reg)
	if err != nil {
		log.Error("registration insert failed", "err", err)
		outcome := "store_error"
		if errors.Is(err, store.ErrTeamNameTaken) {
			outcome = "name_taken"
		}
		return s.fail(span, outcome, err)
	}
	reg.ID = id

	s.setState(StateSucceeded)
	svc.metrics.IncSubmission("succeeded")
	svc.metrics.AddFee(reg.TotalFee)
	log.Info("registration recorded", "id", id, "members", reg.TotalMembers, "fee", reg.TotalFee)

	if svc.notifier != nil {
		if err := svc.notifier.NotifyRegistration(ctx, reg); err != nil {
			log.Warn("notify registration", "err", err)
		}
	}

	return &models.Confirmation{
		TransactionID: reg.UPITransactionID,
		Amount:        reg.TotalFee,
		TeamName:      reg.TeamName,
		TeamID:        id,
	}, nil
}

func (s *Session) fail(span trace.Span, outcome string, err error) (*models.Confirmation, error) {
	s.mu.Lock()
	s.state = StateFailed
	s.lastErr = err
	s.mu.Unlock()

	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	s.svc.metrics.IncSubmission(outcome)
	return nil, err
}
