// Package saga runs an ordered list of independently atomic steps and, on the
// first failure, unwinds the completed ones in reverse through their
// compensations.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dayslot/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dayslot/internal/bookings/saga"

const (
	OutcomeOK                 = "ok"
	OutcomeFailed             = "failed"
	OutcomeCompensated        = "compensated"
	OutcomeCompensationFailed = "compensation_failed"
)

type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

func NewStep(name string, execute func(ctx context.Context) error) *Step {
	return &Step{
		Name:    name,
		Execute: execute,
	}
}

// WithCompensation attaches the action that undoes a completed Execute.
func (s *Step) WithCompensation(compensate func(ctx context.Context) error) *Step {
	s.Compensate = compensate
	return s
}

type Saga struct {
	name   string
	steps  []*Step
	log    *logger.Logger
	keys   []any
	tracer trace.Tracer
}

// New creates a saga. keys are key/value pairs identifying the rows the saga
// touches; they are attached to every audit record.
func New(name string, log *logger.Logger, keys ...any) *Saga {
	return &Saga{
		name:   name,
		log:    log,
		keys:   keys,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *Saga) Add(steps ...*Step) *Saga {
	s.steps = append(s.steps, steps...)
	return s
}

func (s *Saga) Name() string {
	return s.name
}

// Run executes steps strictly in order. When a step fails, every previously
// completed step that has a compensation is undone, most recent first, and
// the step error is returned. If any compensation fails as well the result is
// a *CompensationError carrying both.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]*Step, 0, len(s.steps))

	for _, step := range s.steps {
		err := s.execute(ctx, step)
		if err == nil {
			completed = append(completed, step)
			continue
		}

		compErr := s.unwind(ctx, completed)
		if compErr != nil {
			return &CompensationError{
				Saga:            s.name,
				Step:            step.Name,
				Cause:           err,
				CompensationErr: compErr,
			}
		}
		return fmt.Errorf("%s step failed: %w", step.Name, err)
	}
	return nil
}

func (s *Saga) execute(ctx context.Context, step *Step) error {
	ctx, span := s.tracer.Start(ctx, s.name+"."+step.Name)
	defer span.End()

	start := time.Now()
	err := step.Execute(ctx)
	s.audit(step.Name, start, err, OutcomeOK, OutcomeFailed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// unwind runs compensations in reverse. A failing compensation does not stop
// the remaining ones; all failures are joined. Compensations still run when
// the caller's context has been cancelled.
func (s *Saga) unwind(ctx context.Context, completed []*Step) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := s.compensate(ctx, step); err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Saga) compensate(ctx context.Context, step *Step) error {
	ctx, span := s.tracer.Start(ctx, s.name+"."+step.Name+".compensate",
		trace.WithAttributes(attribute.Bool("saga.compensation", true)))
	defer span.End()

	start := time.Now()
	err := step.Compensate(ctx)
	s.audit(step.Name, start, err, OutcomeCompensated, OutcomeCompensationFailed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Saga) audit(step string, start time.Time, err error, okOutcome, failedOutcome string) {
	outcome := okOutcome
	args := []any{"saga", s.name, "step", step}
	if err != nil {
		outcome = failedOutcome
		args = append(args, "error", err.Error())
	}
	args = append(args, "outcome", outcome, "duration_ms", time.Since(start).Milliseconds())
	s.log.Audit("saga step", append(args, s.keys...)...)
}
