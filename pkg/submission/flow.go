package submission

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"pair-scheduler/pkg/form"
	"pair-scheduler/pkg/models"
)

// Status is the lifecycle state of a form submission
type Status string

const (
	StatusInitial    Status = "initial"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusFailed     Status = "failed"
)

const (
	eventSubmit  = "submit"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventReset   = "reset"
)

// ErrSubmitInFlight is returned when submit is pressed while a submission is pending
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// Submitter sends a payload to the relay
type Submitter interface {
	Submit(ctx context.Context, payload models.SubmissionPayload) error
}

// Flow tracks one form session's submission state
type Flow struct {
	machine   *fsm.FSM
	schema    *form.Schema
	submitter Submitter
	logger    *zap.Logger

	mu        sync.Mutex
	lastErr   error
	listeners []func(Status)
}

// NewFlow creates a flow in the initial state
func NewFlow(schema *form.Schema, submitter Submitter, logger *zap.Logger) *Flow {
	f := &Flow{
		schema:    schema,
		submitter: submitter,
		logger:    logger,
	}

	f.machine = fsm.NewFSM(
		string(StatusInitial),
		fsm.Events{
			// submitting again after an outcome is allowed; only an in-flight submit blocks
			{Name: eventSubmit, Src: []string{string(StatusInitial), string(StatusSubmitted), string(StatusFailed)}, Dst: string(StatusSubmitting)},
			{Name: eventSucceed, Src: []string{string(StatusSubmitting)}, Dst: string(StatusSubmitted)},
			{Name: eventFail, Src: []string{string(StatusSubmitting)}, Dst: string(StatusFailed)},
			{Name: eventReset, Src: []string{string(StatusSubmitted), string(StatusFailed)}, Dst: string(StatusInitial)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				f.logger.Debug("submission status changed",
					zap.String("form", f.schema.Name),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)

	return f
}

// Status returns the current state
func (f *Flow) Status() Status {
	return Status(f.machine.Current())
}

// Disabled reports whether the submit control is non-interactive
func (f *Flow) Disabled() bool {
	return f.machine.Is(string(StatusSubmitting))
}

// Err returns the error of the last failed submission
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// OnChange registers fn to run after every status change
func (f *Flow) OnChange(fn func(Status)) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Attach resets the flow whenever the model is edited
func (f *Flow) Attach(model *form.Model) {
	model.OnEdit(func(string) { f.Edit() })
}

// Edit drops a stale submitted or failed outcome back to initial
func (f *Flow) Edit() {
	if !f.machine.Can(eventReset) {
		return
	}
	if err := f.machine.Event(context.Background(), eventReset); err != nil {
		return
	}
	f.notify(StatusInitial)
}

// Submit sends the given form values. values is the snapshot taken when the
// user pressed submit, not the live model.
func (f *Flow) Submit(ctx context.Context, values map[string]string) error {
	payload := f.schema.Payload(values)

	// transitions must land even if ctx is cancelled mid-request
	machineCtx := context.WithoutCancel(ctx)

	if err := f.machine.Event(machineCtx, eventSubmit); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return ErrSubmitInFlight
		}
		return err
	}
	f.setErr(nil)
	f.notify(StatusSubmitting)

	if err := f.submitter.Submit(ctx, payload); err != nil {
		f.setErr(err)
		f.logger.Error("error submitting form data", zap.String("form", f.schema.Name), zap.Error(err))
		if ferr := f.machine.Event(machineCtx, eventFail); ferr != nil {
			f.logger.Error("error recording failed submission", zap.Error(ferr))
		}
		f.notify(StatusFailed)
		return err
	}

	if err := f.machine.Event(machineCtx, eventSucceed); err != nil {
		f.logger.Error("error recording submission", zap.Error(err))
		return err
	}
	f.notify(StatusSubmitted)
	return nil
}

func (f *Flow) setErr(err error) {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
}

func (f *Flow) notify(s Status) {
	f.mu.Lock()
	listeners := append([]func(Status){}, f.listeners...)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
