package services

import (
	"context"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EvaluationPending   = "pending"
	EvaluationDraft     = "draft"
	EvaluationSubmitted = "submitted"
	EvaluationLocked    = "locked"
)

type (
	// Evaluation is a panelist's grading of a group at one defense.
	Evaluation struct {
		ID          uuid.UUID  `column:"id" json:"id"`
		ScheduleID  uuid.UUID  `column:"schedule_id" json:"scheduleId"`
		EvaluatorID uuid.UUID  `column:"evaluator_id" json:"evaluatorId"`
		Status      string     `column:"status" json:"status"`
		Comments    *string    `column:"comments" json:"comments"`
		SubmittedAt *time.Time `column:"submitted_at" json:"submittedAt"`
		CreatedAt   time.Time  `column:"created_at" json:"createdAt"`
		UpdatedAt   time.Time  `column:"updated_at" json:"updatedAt"`
	}

	NewEvaluation struct {
		ScheduleID  uuid.UUID `column:"schedule_id"`
		EvaluatorID uuid.UUID `column:"evaluator_id"`
		Status      *string   `column:"status"`
		Comments    *string   `column:"comments"`
	}

	EvaluationPatch struct {
		Status      psql.Optional[string]    `column:"status" json:"status"`
		Comments    psql.Optional[string]    `column:"comments" json:"comments"`
		SubmittedAt psql.Optional[time.Time] `column:"submitted_at" json:"-"`
	}

	EvaluationService struct {
		*psql.Mutable[Evaluation, NewEvaluation, EvaluationPatch]
	}
)

func newEvaluationService(ex *psql.Executor) *EvaluationService {
	return &EvaluationService{psql.NewMutable[Evaluation, NewEvaluation, EvaluationPatch](ex, string(Evaluations))}
}

// FindFor returns the evaluation of a schedule by one evaluator.
func (s *EvaluationService) FindFor(ctx context.Context, scheduleID, evaluatorID uuid.UUID) (*Evaluation, error) {
	return s.FindOne(ctx, psql.Where{"schedule_id": scheduleID, "evaluator_id": evaluatorID})
}

func (s *EvaluationService) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]Evaluation, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"schedule_id": scheduleID}, OrderBy: "created_at"})
}

func (s *EvaluationService) ListByEvaluator(ctx context.Context, evaluatorID uuid.UUID, q psql.Query) ([]Evaluation, error) {
	return s.FindMany(ctx, ordered(scope(q, psql.Where{"evaluator_id": evaluatorID}), "created_at", psql.Desc))
}

// Submit marks an evaluation submitted. Locked evaluations are left as they
// are and nil is returned for them.
func (s *EvaluationService) Submit(ctx context.Context, id uuid.UUID, at time.Time) (*Evaluation, error) {
	return s.UpdateOne(ctx,
		psql.Where{"id": id, "status": []string{EvaluationPending, EvaluationDraft, EvaluationSubmitted}},
		EvaluationPatch{Status: psql.Set(EvaluationSubmitted), SubmittedAt: psql.Set(at)})
}

func (s *EvaluationService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Evaluation, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id}, EvaluationPatch{Status: psql.Set(status)})
}

type (
	EvaluationScore struct {
		ID           uuid.UUID       `column:"id" json:"id"`
		EvaluationID uuid.UUID       `column:"evaluation_id" json:"evaluationId"`
		CriterionID  uuid.UUID       `column:"criterion_id" json:"criterionId"`
		Score        decimal.Decimal `column:"score" json:"score"`
		Comment      *string         `column:"comment" json:"comment"`
	}

	NewEvaluationScore struct {
		EvaluationID uuid.UUID       `column:"evaluation_id"`
		CriterionID  uuid.UUID       `column:"criterion_id"`
		Score        decimal.Decimal `column:"score"`
		Comment      *string         `column:"comment"`
	}

	EvaluationScorePatch struct {
		Score   psql.Optional[decimal.Decimal] `column:"score" json:"score"`
		Comment psql.Optional[string]          `column:"comment" json:"comment"`
	}

	EvaluationScoreService struct {
		*psql.Mutable[EvaluationScore, NewEvaluationScore, EvaluationScorePatch]
	}
)

func newEvaluationScoreService(ex *psql.Executor) *EvaluationScoreService {
	return &EvaluationScoreService{psql.NewMutable[EvaluationScore, NewEvaluationScore, EvaluationScorePatch](ex, string(EvaluationScores))}
}

func (s *EvaluationScoreService) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]EvaluationScore, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"evaluation_id": evaluationID}})
}

// UpsertScore records the score of one criterion, replacing an earlier score
// of the same evaluation and criterion.
func (s *EvaluationScoreService) UpsertScore(ctx context.Context, in NewEvaluationScore) (*EvaluationScore, error) {
	return s.CreateOnConflict(ctx, in, []string{"evaluation_id", "criterion_id"})
}

// UpsertScores records several scores in one transaction.
func (s *EvaluationScoreService) UpsertScores(ctx context.Context, scores []NewEvaluationScore) ([]EvaluationScore, error) {
	return psql.InTransaction(ctx, s.Executor(), func(ctx context.Context, tx *psql.Executor) ([]EvaluationScore, error) {
		scoped := newEvaluationScoreService(tx)
		out := make([]EvaluationScore, 0, len(scores))
		for _, in := range scores {
			row, err := scoped.UpsertScore(ctx, in)
			if err != nil {
				return nil, err
			}
			out = append(out, *row)
		}
		return out, nil
	})
}

type (
	// EvaluationExtra holds the free-form parts of an evaluation.
	EvaluationExtra struct {
		ID             uuid.UUID        `column:"id" json:"id"`
		EvaluationID   uuid.UUID        `column:"evaluation_id" json:"evaluationId"`
		Remarks        *string          `column:"remarks" json:"remarks"`
		Recommendation *string          `column:"recommendation" json:"recommendation"`
		BonusPoints    *decimal.Decimal `column:"bonus_points" json:"bonusPoints"`
		UpdatedAt      time.Time        `column:"updated_at" json:"updatedAt"`
	}

	NewEvaluationExtra struct {
		EvaluationID   uuid.UUID        `column:"evaluation_id"`
		Remarks        *string          `column:"remarks"`
		Recommendation *string          `column:"recommendation"`
		BonusPoints    *decimal.Decimal `column:"bonus_points"`
	}

	EvaluationExtraPatch struct {
		Remarks        psql.Optional[string]          `column:"remarks" json:"remarks"`
		Recommendation psql.Optional[string]          `column:"recommendation" json:"recommendation"`
		BonusPoints    psql.Optional[decimal.Decimal] `column:"bonus_points" json:"bonusPoints"`
	}

	EvaluationExtraService struct {
		*psql.Mutable[EvaluationExtra, NewEvaluationExtra, EvaluationExtraPatch]
	}
)

func newEvaluationExtraService(ex *psql.Executor) *EvaluationExtraService {
	return &EvaluationExtraService{psql.NewMutable[EvaluationExtra, NewEvaluationExtra, EvaluationExtraPatch](ex, string(EvaluationExtras))}
}

func (s *EvaluationExtraService) FindByEvaluation(ctx context.Context, evaluationID uuid.UUID) (*EvaluationExtra, error) {
	return s.FindOne(ctx, psql.Where{"evaluation_id": evaluationID})
}

// Save creates the extras of an evaluation or updates them with patch.
func (s *EvaluationExtraService) Save(ctx context.Context, evaluationID uuid.UUID, patch EvaluationExtraPatch) (*EvaluationExtra, error) {
	create := NewEvaluationExtra{EvaluationID: evaluationID}
	if v, ok := patch.Remarks.Get(); ok {
		create.Remarks = &v
	}
	if v, ok := patch.Recommendation.Get(); ok {
		create.Recommendation = &v
	}
	if v, ok := patch.BonusPoints.Get(); ok {
		create.BonusPoints = &v
	}
	return s.Upsert(ctx, psql.Where{"evaluation_id": evaluationID}, create, &patch)
}
