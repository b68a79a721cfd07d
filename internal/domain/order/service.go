package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/xenking/kas-cafe/internal/domain/order"

// SubmitResult holds the outcome of a submission.
type SubmitResult struct {
	Order   *Order
	Consent Consent
	// ConsentRequired is set when history consent has never been answered.
	// The order is held until AnswerConsent is called.
	ConsentRequired bool
	// Entry is the history entry created for the order, if any.
	Entry *HistoryEntry
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider sets the meter provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) ServiceOption {
	return func(o *serviceOptions) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for submit spans.
func WithTracerProvider(tp trace.TracerProvider) ServiceOption {
	return func(o *serviceOptions) { o.tracerProvider = tp }
}

// Service runs the submit flow around the pricing engine: draft overwrite,
// the one-time history consent gate and history maintenance.
type Service struct {
	engine *Engine
	store  Store

	tracer    trace.Tracer
	submitted metric.Int64Counter
	discounts metric.Int64Counter
}

// NewService creates an order Service.
func NewService(engine *Engine, store Store, opts ...ServiceOption) (*Service, error) {
	o := serviceOptions{
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	submitted, err := meter.Int64Counter("kascafe.orders.submitted",
		metric.WithDescription("Orders submitted through the form"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create submitted counter")
	}
	discounts, err := meter.Int64Counter("kascafe.discount.resolutions",
		metric.WithDescription("Discount code resolutions by status"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create discount counter")
	}

	return &Service{
		engine:    engine,
		store:     store,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		submitted: submitted,
		discounts: discounts,
	}, nil
}

// Engine returns the pricing engine.
func (s *Service) Engine() *Engine { return s.engine }

// Preview prices in without persisting anything.
func (s *Service) Preview(ctx context.Context, in Input) *Order {
	o, n := s.engine.resolve(in)
	logCoerced(ctx, n)
	return o
}

// Submit prices in, overwrites the draft and, depending on the history
// consent, appends the order to history. Nothing is stored unless the terms
// were accepted.
func (s *Service) Submit(ctx context.Context, in Input) (_ *SubmitResult, rerr error) {
	if !in.AcceptTerms {
		return nil, ErrTermsNotAccepted
	}

	ctx, span := s.tracer.Start(ctx, "order.Submit")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	o, n := s.engine.resolve(in)
	logCoerced(ctx, n)

	span.SetAttributes(
		attribute.Int("order.items", len(o.Items)),
		attribute.Int64("order.total", o.Total),
		attribute.String("order.discount.status", string(o.Discount.Status)),
	)
	s.submitted.Add(ctx, 1)
	s.discounts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(o.Discount.Status))))

	if err := s.store.SaveDraft(ctx, in); err != nil {
		return nil, errors.Wrap(err, "save draft")
	}

	consent, err := s.store.HistoryConsent(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get history consent")
	}

	res := &SubmitResult{Order: o, Consent: consent}
	switch consent {
	case ConsentYes:
		entry, err := s.store.AppendHistory(ctx, o)
		if err != nil {
			return nil, errors.Wrap(err, "append history")
		}
		res.Entry = entry
	case ConsentNo:
	default:
		if err := s.store.HoldPending(ctx, o); err != nil {
			return nil, errors.Wrap(err, "hold pending order")
		}
		res.ConsentRequired = true
	}

	return res, nil
}

// AnswerConsent records the history consent answer. Answering yes appends
// the order held since the last submission, if one is waiting; the returned
// entry is nil otherwise.
func (s *Service) AnswerConsent(ctx context.Context, c Consent) (*HistoryEntry, error) {
	if c != ConsentYes && c != ConsentNo {
		return nil, ErrInvalidConsent
	}
	if err := s.store.SetHistoryConsent(ctx, c); err != nil {
		return nil, errors.Wrap(err, "set history consent")
	}

	pending, err := s.store.TakePending(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "take pending order")
	}
	if c != ConsentYes || pending == nil {
		return nil, nil
	}

	entry, err := s.store.AppendHistory(ctx, pending)
	if err != nil {
		return nil, errors.Wrap(err, "append pending order")
	}
	return entry, nil
}

// HistoryConsent returns the stored consent answer.
func (s *Service) HistoryConsent(ctx context.Context) (Consent, error) {
	c, err := s.store.HistoryConsent(ctx)
	if err != nil {
		return ConsentUnset, errors.Wrap(err, "get history consent")
	}
	return c, nil
}

// ReloadDraft loads the saved draft and prices it again.
func (s *Service) ReloadDraft(ctx context.Context) (*Input, *Order, error) {
	in, err := s.store.LoadDraft(ctx)
	if err != nil {
		return nil, nil, err
	}
	return in, s.Preview(ctx, *in), nil
}

// ClearDraft removes the saved draft and drops any order waiting for consent.
func (s *Service) ClearDraft(ctx context.Context) error {
	if err := s.store.ClearDraft(ctx); err != nil {
		return errors.Wrap(err, "clear draft")
	}
	if _, err := s.store.TakePending(ctx); err != nil {
		return errors.Wrap(err, "drop pending order")
	}
	return nil
}

// History returns history entries matching query, newest first.
func (s *Service) History(ctx context.Context, query string) ([]HistoryEntry, error) {
	entries, err := s.store.LoadHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load history")
	}
	return FilterHistory(entries, query), nil
}

// HistoryEntry returns a single entry by id.
func (s *Service) HistoryEntry(ctx context.Context, id string) (*HistoryEntry, error) {
	entries, err := s.store.LoadHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load history")
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrEntryNotFound
}

// DeleteHistoryEntry removes one entry, leaving the rest untouched.
func (s *Service) DeleteHistoryEntry(ctx context.Context, id string) error {
	if err := s.store.DeleteHistoryEntry(ctx, id); err != nil {
		return errors.Wrapf(err, "delete history entry %s", id)
	}
	return nil
}

// ClearHistory removes every history entry.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.store.ClearHistory(ctx); err != nil {
		return errors.Wrap(err, "clear history")
	}
	return nil
}

func logCoerced(ctx context.Context, n Normalized) {
	if fields := n.Coerced(); len(fields) > 0 {
		zctx.From(ctx).Debug("Coerced malformed input", zap.Strings("fields", fields))
	}
}
