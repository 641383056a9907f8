package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/qpaper-backend/internal/model"
)

type fakeManager struct {
	fakeQuestions
	created  []model.Question
	replaced []model.Question
}

func (f *fakeManager) Create(_ context.Context, q *model.Question) error {
	q.ID = 100 + len(f.created)
	f.created = append(f.created, *q)
	return nil
}

func (f *fakeManager) ReplaceByCourse(_ context.Context, _ int, qs []model.Question) (int64, error) {
	f.replaced = qs
	return int64(len(qs)), nil
}

type countingRefresher struct{ calls []int }

func (r *countingRefresher) RefreshPool(_ context.Context, courseID int) (int, error) {
	r.calls = append(r.calls, courseID)
	return 0, nil
}

func newQuestionFixture() (*QuestionService, *fakeManager, *countingRefresher) {
	courses := fakeCourses{1: {ID: 1, Code: "CS101"}}
	mgr := &fakeManager{fakeQuestions: fakeQuestions{pools: map[int][]model.Question{}}}
	ref := &countingRefresher{}
	return NewQuestionService(courses, mgr, ref, zerolog.New(io.Discard)), mgr, ref
}

func TestQuestionServiceCreateNormalizes(t *testing.T) {
	svc, mgr, ref := newQuestionFixture()

	q, err := svc.Create(context.Background(), 1, model.AddQuestionRequest{
		Unit: " Unit 3 ", MarkValue: 2, Portion: "b", QuestionText: "q",
		CourseOutcome: "co3", CompetencyLevel: "k2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.ID != 100 || q.CourseID != 1 {
		t.Fatalf("unexpected question %+v", q)
	}
	got := mgr.created[0]
	if got.Unit != "Unit 3" || got.Portion != "B" || got.CourseOutcome != "CO3" || got.CompetencyLevel != "K2" {
		t.Fatalf("not normalized: %+v", got)
	}
	if len(ref.calls) != 1 || ref.calls[0] != 1 {
		t.Fatalf("pool not refreshed: %v", ref.calls)
	}
}

func TestQuestionServiceReplaceAll(t *testing.T) {
	svc, mgr, ref := newQuestionFixture()

	reqs := []model.AddQuestionRequest{
		{Unit: "Unit 1", MarkValue: 1, QuestionText: "a"},
		{Unit: "Unit 2", MarkValue: 13, QuestionText: "b"},
	}
	n, err := svc.ReplaceAll(context.Background(), 1, reqs)
	if err != nil || n != 2 {
		t.Fatalf("ReplaceAll = %d, %v", n, err)
	}
	for _, q := range mgr.replaced {
		if q.CourseID != 1 {
			t.Fatalf("course id not set: %+v", q)
		}
	}
	if len(ref.calls) != 1 {
		t.Fatalf("pool not refreshed: %v", ref.calls)
	}
}

func TestQuestionServiceUnknownCourse(t *testing.T) {
	svc, mgr, ref := newQuestionFixture()
	ctx := context.Background()

	if _, err := svc.ListByCourse(ctx, 7); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("ListByCourse: %v", err)
	}
	if _, err := svc.Create(ctx, 7, model.AddQuestionRequest{Unit: "Unit 1", MarkValue: 1, QuestionText: "q"}); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.ReplaceAll(ctx, 7, nil); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(mgr.created) != 0 || mgr.replaced != nil || len(ref.calls) != 0 {
		t.Fatal("store touched for unknown course")
	}
}

func TestQuestionServiceListNeverNil(t *testing.T) {
	svc, _, _ := newQuestionFixture()
	qs, err := svc.ListByCourse(context.Background(), 1)
	if err != nil || qs == nil || len(qs) != 0 {
		t.Fatalf("ListByCourse = %v, %v", qs, err)
	}
}
