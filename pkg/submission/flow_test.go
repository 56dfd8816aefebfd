package submission

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pair-scheduler/pkg/form"
	"pair-scheduler/pkg/models"
)

type blockingSubmitter struct {
	started chan models.SubmissionPayload
	release chan error
}

func newBlockingSubmitter() *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan models.SubmissionPayload, 1),
		release: make(chan error),
	}
}

func (b *blockingSubmitter) Submit(_ context.Context, payload models.SubmissionPayload) error {
	b.started <- payload
	return <-b.release
}

type stubSubmitter struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (s *stubSubmitter) Submit(_ context.Context, _ models.SubmissionPayload) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

func scheduleSchema() *form.Schema {
	return form.ScheduleSchema(form.Settings{EmailDomain: "onja.org", EmailRule: form.RequireAll})
}

func sampleValues() map[string]string {
	return map[string]string{
		"name":      "Rina",
		"email":     "rina@onja.org",
		"date":      "07-03-2026",
		"from_time": "09:05",
		"end_time":  "10:05",
		"goal":      "channels",
	}
}

func TestFlow_StartsInitial(t *testing.T) {
	flow := NewFlow(scheduleSchema(), &stubSubmitter{}, zap.NewNop())
	if flow.Status() != StatusInitial {
		t.Errorf("Expected initial, got %s", flow.Status())
	}
	if flow.Disabled() {
		t.Error("Submit control must be enabled initially")
	}
}

func TestFlow_SubmittingIsObservableBeforeResponse(t *testing.T) {
	submitter := newBlockingSubmitter()
	flow := NewFlow(scheduleSchema(), submitter, zap.NewNop())

	var seen []Status
	var mu sync.Mutex
	flow.OnChange(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background(), sampleValues()) }()

	payload := <-submitter.started
	if flow.Status() != StatusSubmitting {
		t.Fatalf("Expected submitting while the relay call is pending, got %s", flow.Status())
	}
	if !flow.Disabled() {
		t.Error("Submit control must be disabled while submitting")
	}

	want := models.SubmissionPayload{
		"name": "Rina", "email": "rina@onja.org", "date": "07-03-2026",
		"startTime": "09:05", "endTime": "10:05", "goal": "channels",
	}
	if !reflect.DeepEqual(payload, want) {
		t.Errorf("Payload = %v; want %v", payload, want)
	}

	submitter.release <- nil
	if err := <-done; err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if flow.Status() != StatusSubmitted {
		t.Errorf("Expected submitted, got %s", flow.Status())
	}
	if flow.Disabled() {
		t.Error("Submit control must be enabled after success")
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seen, []Status{StatusSubmitting, StatusSubmitted}) {
		t.Errorf("Unexpected transitions: %v", seen)
	}
}

func TestFlow_FailureRecordsError(t *testing.T) {
	boom := errors.New("relay unreachable")
	flow := NewFlow(scheduleSchema(), &stubSubmitter{err: boom}, zap.NewNop())

	err := flow.Submit(context.Background(), sampleValues())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected relay error, got %v", err)
	}
	if flow.Status() != StatusFailed {
		t.Errorf("Expected failed, got %s", flow.Status())
	}
	if !errors.Is(flow.Err(), boom) {
		t.Errorf("Expected Err to hold the failure, got %v", flow.Err())
	}
	if flow.Disabled() {
		t.Error("Submit control must be enabled after failure")
	}
}

func TestFlow_RejectsSubmitWhileInFlight(t *testing.T) {
	submitter := newBlockingSubmitter()
	flow := NewFlow(scheduleSchema(), submitter, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background(), sampleValues()) }()
	<-submitter.started

	if err := flow.Submit(context.Background(), sampleValues()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("Expected ErrSubmitInFlight, got %v", err)
	}

	submitter.release <- nil
	<-done
}

func TestFlow_ResubmitAfterOutcome(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("first attempt fails")}
	flow := NewFlow(scheduleSchema(), submitter, zap.NewNop())

	flow.Submit(context.Background(), sampleValues())
	if flow.Status() != StatusFailed {
		t.Fatalf("Expected failed, got %s", flow.Status())
	}

	submitter.err = nil
	if err := flow.Submit(context.Background(), sampleValues()); err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}
	if flow.Status() != StatusSubmitted || flow.Err() != nil {
		t.Errorf("Expected clean submitted state, got %s %v", flow.Status(), flow.Err())
	}

	if err := flow.Submit(context.Background(), sampleValues()); err != nil {
		t.Fatalf("Second submission after success failed: %v", err)
	}
	if submitter.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", submitter.calls)
	}
}

func TestFlow_EditResetsOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		from Status
	}{
		{"AfterSuccess", nil, StatusSubmitted},
		{"AfterFailure", errors.New("boom"), StatusFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			schema := scheduleSchema()
			model := form.NewModel(schema, time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local))
			flow := NewFlow(schema, &stubSubmitter{err: tc.err}, zap.NewNop())
			flow.Attach(model)

			flow.Submit(context.Background(), model.Values())
			if flow.Status() != tc.from {
				t.Fatalf("Expected %s, got %s", tc.from, flow.Status())
			}

			model.SetField("goal", "something else")
			if flow.Status() != StatusInitial {
				t.Errorf("Expected edit to reset to initial, got %s", flow.Status())
			}
		})
	}
}

func TestFlow_EditDuringSubmitKeepsSubmitting(t *testing.T) {
	submitter := newBlockingSubmitter()
	flow := NewFlow(scheduleSchema(), submitter, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background(), sampleValues()) }()
	<-submitter.started

	flow.Edit()
	if flow.Status() != StatusSubmitting {
		t.Errorf("Edit must not interrupt an in-flight submission, got %s", flow.Status())
	}

	submitter.release <- nil
	<-done
	if flow.Status() != StatusSubmitted {
		t.Errorf("Expected submitted, got %s", flow.Status())
	}
}

func TestFlow_UsesSnapshotNotLiveModel(t *testing.T) {
	submitter := newBlockingSubmitter()
	schema := scheduleSchema()
	model := form.NewModel(schema, time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local))
	model.SetField("name", "Rina")
	flow := NewFlow(schema, submitter, zap.NewNop())

	snapshot := model.Values()
	model.SetField("name", "Bob")

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background(), snapshot) }()
	payload := <-submitter.started
	submitter.release <- nil
	<-done

	if payload["name"] != "Rina" {
		t.Errorf("Expected snapshot value Rina, got %s", payload["name"])
	}
}

func TestFlow_CancelledContextStillLandsInFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flow := NewFlow(scheduleSchema(), &stubSubmitter{err: context.Canceled}, zap.NewNop())
	err := flow.Submit(ctx, sampleValues())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if flow.Status() != StatusFailed {
		t.Errorf("Expected failed, got %s", flow.Status())
	}
}
