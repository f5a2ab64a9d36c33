package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Geniuskaa/promo_registration/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrMissingFields = errors.New("missing required fields")

const defaultNotifyTimeout = 30 * time.Second

// Store is the append-only tabular collaborator holding registration rows.
type Store interface {
	ReadAll(ctx context.Context) ([][]string, error)
	Append(ctx context.Context, row []string) error
}

// Notifier is told about every newly created registration.
type Notifier interface {
	NotifyRegistration(ctx context.Context, rec Record) error
}

type Service struct {
	store    Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
	nextCode CodeSource
	now      func() time.Time
	loc      *time.Location
	notifier Notifier
	tracer   trace.Tracer

	notifyTimeout time.Duration
	pending       sync.WaitGroup

	// Serializes find-or-create within the process. Separate processes
	// writing to the same sheet can still both append.
	mu sync.Mutex
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCodeSource(src CodeSource) Option {
	return func(s *Service) { s.nextCode = src }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithNotifyTimeout bounds a single notification attempt.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   logger,
		nextCode: RandomCodes(),
		now:      time.Now,
		loc:      time.UTC,
		tracer:   otel.Tracer("github.com/Geniuskaa/promo_registration/pkg/registration"),

		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register finds the registration of the request's person or creates a new one
// with a fresh discount code. A found registration is reported as Duplicate and
// leaves the store untouched.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	req = trimRequest(req)
	if req.Nombre == "" || req.Apellido == "" || req.Telefono == "" || req.Direccion == "" {
		s.metrics.ObserveRegistration("invalid")
		return nil, ErrMissingFields
	}

	ctx, span := s.tracer.Start(ctx, "registration.Register")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.findOrCreate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		s.metrics.ObserveRegistration("error")
		return nil, fmt.Errorf("Register failed: %w", err)
	}

	span.SetAttributes(attribute.String("registration.outcome", res.Outcome.String()))
	s.metrics.ObserveRegistration(res.Outcome.String())
	return res, nil
}

func (s *Service) findOrCreate(ctx context.Context, req Request) (*Result, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	if row, ok := findByName(rows, identityOf(req.Nombre, req.Apellido)); ok {
		s.logger.Info("client already registered",
			zap.String("code", cell(row, colCode)), zap.Int("rows", len(rows)))

		return &Result{
			Outcome:      Duplicate,
			Name:         cell(row, colFirstName) + " " + cell(row, colLastName),
			DiscountCode: cell(row, colCode),
		}, nil
	}

	taken := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if code := cell(row, colCode); code != "" {
			taken[code] = struct{}{}
		}
	}

	code, err := uniqueCode(s.nextCode, taken)
	if err != nil {
		return nil, fmt.Errorf("uniqueCode failed: %w", err)
	}

	rec := Record{
		FirstName:    req.Nombre,
		LastName:     req.Apellido,
		Phone:        req.Telefono,
		Address:      req.Direccion,
		DiscountCode: code,
		RegisteredAt: s.now(),
	}

	if err := s.append(ctx, rec.Row(s.loc)); err != nil {
		return nil, err
	}

	s.logger.Info("client registered", zap.String("code", code), zap.Int("rows", len(rows)+1))
	s.notify(rec)

	return &Result{Outcome: Created, Name: req.Nombre, DiscountCode: code}, nil
}

func (s *Service) readAll(ctx context.Context) ([][]string, error) {
	ctx, span := s.tracer.Start(ctx, "rowstore.ReadAll")
	defer span.End()

	start := time.Now()
	rows, err := s.store.ReadAll(ctx)
	s.metrics.ObserveStore("read", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store.ReadAll failed: %w", err)
	}

	span.SetAttributes(attribute.Int("rowstore.rows", len(rows)))
	return rows, nil
}

func (s *Service) append(ctx context.Context, row []string) error {
	ctx, span := s.tracer.Start(ctx, "rowstore.Append")
	defer span.End()

	start := time.Now()
	err := s.store.Append(ctx, row)
	s.metrics.ObserveStore("append", start, err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("store.Append failed: %w", err)
	}
	return nil
}

func (s *Service) notify(rec Record) {
	if s.notifier == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyRegistration(ctx, rec); err != nil {
			s.logger.Warn("registration notification failed", zap.Error(err),
				zap.String("code", rec.DiscountCode))
		}
	}()
}

// Wait blocks until every started notification has finished or timed out.
func (s *Service) Wait() {
	s.pending.Wait()
}

func findByName(rows [][]string, who identity) ([]string, bool) {
	for _, row := range rows {
		if identityOf(cell(row, colFirstName), cell(row, colLastName)) == who {
			return row, true
		}
	}
	return nil, false
}

func trimRequest(req Request) Request {
	return Request{
		Nombre:    strings.TrimSpace(req.Nombre),
		Apellido:  strings.TrimSpace(req.Apellido),
		Telefono:  strings.TrimSpace(req.Telefono),
		Direccion: strings.TrimSpace(req.Direccion),
	}
}
