package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/testutil"
	"github.com/sirreidlos/e-form/internal/eform/validate"
)

func strptr(s string) *string { return &s }

func newResponseFixture(t *testing.T) (*ResponseService, *testutil.MemoryFormStore, *testutil.MemoryResponseStore, *broadcast.Hub) {
	t.Helper()
	forms := testutil.NewMemoryFormStore()
	responses := testutil.NewMemoryResponseStore()
	hub := broadcast.NewHub(broadcast.DefaultCapacity, zap.NewNop())
	t.Cleanup(hub.Close)
	svc := NewResponseService(forms, responses, hub, zap.NewNop())
	return svc, forms, responses, hub
}

func surveyQuestions() []entity.Question {
	return []entity.Question{
		{Number: 1, Text: "Your name", Kind: entity.KindTextAnswer},
		{Number: 2, Text: "Favourite colors", Kind: entity.KindCheckboxes, Options: []string{"Red", "Green", "Blue"}},
	}
}

func surveyAnswers() []entity.Answer {
	return []entity.Answer{
		{Number: 1, Input: strptr("Alice")},
		{Number: 2, SelectedOptions: []string{"Red", "Blue"}},
	}
}

func TestSubmitStoresAndBroadcasts(t *testing.T) {
	svc, forms, responses, hub := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	sub := hub.Subscribe()
	defer sub.Unsubscribe()

	stored, err := svc.Submit(context.Background(), "form-1", "responder-1", surveyAnswers())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected a generated response id")
	}
	if stored.FormID != "form-1" || stored.Responder != "responder-1" {
		t.Errorf("stored response has wrong identity: %+v", stored)
	}

	persisted, err := responses.FindByID(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("response was not persisted: %v", err)
	}
	if len(persisted.Answers) != 2 {
		t.Errorf("persisted %d answers, want 2", len(persisted.Answers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("subscriber did not receive the response: %v", err)
	}
	if got.ID != stored.ID {
		t.Errorf("received response %s, want %s", got.ID, stored.ID)
	}
}

func TestSubmitRejectsInvalidAnswers(t *testing.T) {
	svc, forms, responses, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	answers := []entity.Answer{
		{Number: 1, Input: strptr("Alice")},
		{Number: 2, SelectedOptions: []string{"Purple"}},
	}

	_, err := svc.Submit(context.Background(), "form-1", "responder-1", answers)
	var answerErr *validate.AnswerError
	if !errors.As(err, &answerErr) {
		t.Fatalf("expected an answer error, got %v", err)
	}
	if answerErr.Number != 2 {
		t.Errorf("error names answer %d, want 2", answerErr.Number)
	}

	if list, _ := responses.ListByForm(context.Background(), "form-1"); len(list) != 0 {
		t.Errorf("rejected submission was persisted: %d rows", len(list))
	}
}

func TestSubmitRejectsTooFewAnswers(t *testing.T) {
	svc, forms, _, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	_, err := svc.Submit(context.Background(), "form-1", "responder-1", []entity.Answer{{Number: 1, Input: strptr("Alice")}})
	if !errors.Is(err, validate.ErrTooFewAnswers) {
		t.Fatalf("expected ErrTooFewAnswers, got %v", err)
	}
}

func TestSubmitUnknownForm(t *testing.T) {
	svc, _, _, _ := newResponseFixture(t)

	_, err := svc.Submit(context.Background(), "missing", "responder-1", surveyAnswers())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitPrivateFormForbidden(t *testing.T) {
	svc, forms, _, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePrivate, surveyQuestions())

	if _, err := svc.Submit(context.Background(), "form-1", "stranger", surveyAnswers()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// The owner can still submit to their own private form.
	if _, err := svc.Submit(context.Background(), "form-1", "owner-1", surveyAnswers()); err != nil {
		t.Fatalf("owner submission failed: %v", err)
	}
}

func TestListOwnerOnly(t *testing.T) {
	svc, forms, _, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	if _, err := svc.Submit(context.Background(), "form-1", "responder-1", surveyAnswers()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := svc.List(context.Background(), "form-1", "responder-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner list: expected ErrForbidden, got %v", err)
	}

	list, err := svc.List(context.Background(), "form-1", "owner-1")
	if err != nil {
		t.Fatalf("owner list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("listed %d responses, want 1", len(list))
	}
}

func TestDeleteResponseOwnership(t *testing.T) {
	svc, forms, responses, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	stored, err := svc.Submit(context.Background(), "form-1", "responder-1", surveyAnswers())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The responder is not the form owner and cannot delete.
	if err := svc.Delete(context.Background(), stored.ID, "responder-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.Delete(context.Background(), stored.ID, "owner-1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := responses.FindByID(context.Background(), stored.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("response still present after delete: %v", err)
	}
}

func TestChartCountsInputsAndSelections(t *testing.T) {
	svc, forms, _, _ := newResponseFixture(t)
	questions := []entity.Question{
		{Number: 1, Text: "Pick one", Kind: entity.KindMultipleChoice, Options: []string{"Yes", "No"}},
		{Number: 2, Text: "Pick many", Kind: entity.KindCheckboxes, Options: []string{"A", "B"}},
	}
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, questions)

	submissions := [][]entity.Answer{
		{{Number: 1, Input: strptr("Yes")}, {Number: 2, SelectedOptions: []string{"A", "B"}}},
		{{Number: 1, Input: strptr("Yes")}, {Number: 2, SelectedOptions: []string{"A"}}},
		{{Number: 1, Input: strptr("No")}, {Number: 2, SelectedOptions: []string{}}},
	}
	for i, answers := range submissions {
		if _, err := svc.Submit(context.Background(), "form-1", "responder-1", answers); err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}

	counts, err := svc.Chart(context.Background(), "form-1", "owner-1")
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}

	if counts[1]["Yes"] != 2 || counts[1]["No"] != 1 {
		t.Errorf("question 1 counts = %v, want Yes:2 No:1", counts[1])
	}
	if counts[2]["A"] != 2 || counts[2]["B"] != 1 {
		t.Errorf("question 2 counts = %v, want A:2 B:1", counts[2])
	}
}

func TestChartEmptyFormHasEmptyBuckets(t *testing.T) {
	svc, forms, _, _ := newResponseFixture(t)
	testutil.SeedForm(forms, "form-1", "owner-1", entity.FormStatePublic, surveyQuestions())

	counts, err := svc.Chart(context.Background(), "form-1", "owner-1")
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d buckets, want one per question", len(counts))
	}
	for number, bucket := range counts {
		if len(bucket) != 0 {
			t.Errorf("question %d bucket not empty: %v", number, bucket)
		}
	}
}
