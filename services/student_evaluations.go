package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// StudentEvaluation is a panelist's grading of one student at a defense.
	StudentEvaluation struct {
		ID          uuid.UUID  `column:"id" json:"id"`
		ScheduleID  uuid.UUID  `column:"schedule_id" json:"scheduleId"`
		StudentID   uuid.UUID  `column:"student_id" json:"studentId"`
		EvaluatorID uuid.UUID  `column:"evaluator_id" json:"evaluatorId"`
		Status      string     `column:"status" json:"status"`
		Comments    *string    `column:"comments" json:"comments"`
		SubmittedAt *time.Time `column:"submitted_at" json:"submittedAt"`
		CreatedAt   time.Time  `column:"created_at" json:"createdAt"`
		UpdatedAt   time.Time  `column:"updated_at" json:"updatedAt"`
	}

	NewStudentEvaluation struct {
		ScheduleID  uuid.UUID `column:"schedule_id"`
		StudentID   uuid.UUID `column:"student_id"`
		EvaluatorID uuid.UUID `column:"evaluator_id"`
		Status      *string   `column:"status"`
		Comments    *string   `column:"comments"`
	}

	StudentEvaluationPatch struct {
		Status      psql.Optional[string]    `column:"status" json:"status"`
		Comments    psql.Optional[string]    `column:"comments" json:"comments"`
		SubmittedAt psql.Optional[time.Time] `column:"submitted_at" json:"-"`
	}

	StudentEvaluationService struct {
		*psql.Mutable[StudentEvaluation, NewStudentEvaluation, StudentEvaluationPatch]
	}
)

func newStudentEvaluationService(ex *psql.Executor) *StudentEvaluationService {
	return &StudentEvaluationService{psql.NewMutable[StudentEvaluation, NewStudentEvaluation, StudentEvaluationPatch](ex, string(StudentEvaluations))}
}

func (s *StudentEvaluationService) FindFor(ctx context.Context, scheduleID, studentID, evaluatorID uuid.UUID) (*StudentEvaluation, error) {
	return s.FindOne(ctx, psql.Where{"schedule_id": scheduleID, "student_id": studentID, "evaluator_id": evaluatorID})
}

func (s *StudentEvaluationService) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]StudentEvaluation, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"schedule_id": scheduleID}, OrderBy: "created_at"})
}

func (s *StudentEvaluationService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]StudentEvaluation, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"student_id": studentID}, OrderBy: "created_at"})
}

// Submit marks a student evaluation submitted unless it is locked.
func (s *StudentEvaluationService) Submit(ctx context.Context, id uuid.UUID, at time.Time) (*StudentEvaluation, error) {
	return s.UpdateOne(ctx,
		psql.Where{"id": id, "status": []string{EvaluationPending, EvaluationDraft, EvaluationSubmitted}},
		StudentEvaluationPatch{Status: psql.Set(EvaluationSubmitted), SubmittedAt: psql.Set(at)})
}

type (
	StudentEvaluationScore struct {
		ID                  uuid.UUID       `column:"id" json:"id"`
		StudentEvaluationID uuid.UUID       `column:"student_evaluation_id" json:"studentEvaluationId"`
		CriterionID         uuid.UUID       `column:"criterion_id" json:"criterionId"`
		Score               decimal.Decimal `column:"score" json:"score"`
		Comment             *string         `column:"comment" json:"comment"`
	}

	NewStudentEvaluationScore struct {
		StudentEvaluationID uuid.UUID       `column:"student_evaluation_id"`
		CriterionID         uuid.UUID       `column:"criterion_id"`
		Score               decimal.Decimal `column:"score"`
		Comment             *string         `column:"comment"`
	}

	StudentEvaluationScorePatch struct {
		Score   psql.Optional[decimal.Decimal] `column:"score" json:"score"`
		Comment psql.Optional[string]          `column:"comment" json:"comment"`
	}

	StudentEvaluationScoreService struct {
		*psql.Mutable[StudentEvaluationScore, NewStudentEvaluationScore, StudentEvaluationScorePatch]
	}
)

func newStudentEvaluationScoreService(ex *psql.Executor) *StudentEvaluationScoreService {
	return &StudentEvaluationScoreService{psql.NewMutable[StudentEvaluationScore, NewStudentEvaluationScore, StudentEvaluationScorePatch](ex, string(StudentEvaluationScores))}
}

func (s *StudentEvaluationScoreService) ListByStudentEvaluation(ctx context.Context, studentEvaluationID uuid.UUID) ([]StudentEvaluationScore, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"student_evaluation_id": studentEvaluationID}})
}

func (s *StudentEvaluationScoreService) UpsertScore(ctx context.Context, in NewStudentEvaluationScore) (*StudentEvaluationScore, error) {
	return s.CreateOnConflict(ctx, in, []string{"student_evaluation_id", "criterion_id"})
}

const (
	FeedbackDraft     = "draft"
	FeedbackSubmitted = "submitted"
)

type (
	// StudentFeedbackForm holds a student's answers about their defense.
	StudentFeedbackForm struct {
		ID          uuid.UUID       `column:"id" json:"id"`
		ScheduleID  uuid.UUID       `column:"schedule_id" json:"scheduleId"`
		StudentID   uuid.UUID       `column:"student_id" json:"studentId"`
		Answers     json.RawMessage `column:"answers" json:"answers"`
		Status      string          `column:"status" json:"status"`
		SubmittedAt *time.Time      `column:"submitted_at" json:"submittedAt"`
		CreatedAt   time.Time       `column:"created_at" json:"createdAt"`
		UpdatedAt   time.Time       `column:"updated_at" json:"updatedAt"`
	}

	NewStudentFeedbackForm struct {
		ScheduleID  uuid.UUID       `column:"schedule_id"`
		StudentID   uuid.UUID       `column:"student_id"`
		Answers     json.RawMessage `column:"answers"`
		Status      *string         `column:"status"`
		SubmittedAt *time.Time      `column:"submitted_at"`
	}

	StudentFeedbackFormPatch struct {
		Answers     psql.Optional[json.RawMessage] `column:"answers" json:"answers"`
		Status      psql.Optional[string]          `column:"status" json:"status"`
		SubmittedAt psql.Optional[time.Time]       `column:"submitted_at" json:"-"`
	}

	StudentFeedbackFormService struct {
		*psql.Mutable[StudentFeedbackForm, NewStudentFeedbackForm, StudentFeedbackFormPatch]
	}
)

func newStudentFeedbackFormService(ex *psql.Executor) *StudentFeedbackFormService {
	return &StudentFeedbackFormService{psql.NewMutable[StudentFeedbackForm, NewStudentFeedbackForm, StudentFeedbackFormPatch](ex, string(StudentFeedbackForms))}
}

func (s *StudentFeedbackFormService) FindFor(ctx context.Context, scheduleID, studentID uuid.UUID) (*StudentFeedbackForm, error) {
	return s.FindOne(ctx, psql.Where{"schedule_id": scheduleID, "student_id": studentID})
}

func (s *StudentFeedbackFormService) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]StudentFeedbackForm, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"schedule_id": scheduleID}, OrderBy: "created_at"})
}

// Submit stores the final answers of a student for a schedule, creating
// the form if the student never saved a draft.
func (s *StudentFeedbackFormService) Submit(ctx context.Context, scheduleID, studentID uuid.UUID, answers json.RawMessage, at time.Time) (*StudentFeedbackForm, error) {
	status := FeedbackSubmitted
	create := NewStudentFeedbackForm{
		ScheduleID:  scheduleID,
		StudentID:   studentID,
		Answers:     answers,
		Status:      &status,
		SubmittedAt: &at,
	}
	patch := StudentFeedbackFormPatch{
		Answers:     psql.Set(answers),
		Status:      psql.Set(FeedbackSubmitted),
		SubmittedAt: psql.Set(at),
	}
	return s.Upsert(ctx, psql.Where{"schedule_id": scheduleID, "student_id": studentID}, create, &patch)
}
