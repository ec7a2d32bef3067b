package services

import (
	"context"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// OverallPercentage is a student's weighted score at one defense,
	// aggregated over every submitted evaluation.
	OverallPercentage struct {
		ScheduleID      uuid.UUID       `column:"schedule_id" json:"scheduleId"`
		GroupID         uuid.UUID       `column:"group_id" json:"groupId"`
		StudentID       uuid.UUID       `column:"student_id" json:"studentId"`
		Percentage      decimal.Decimal `column:"percentage" json:"percentage"`
		EvaluationCount int             `column:"evaluation_count" json:"evaluationCount"`
	}

	OverallPercentageService struct {
		*psql.Readonly[OverallPercentage]
	}

	GroupRanking struct {
		GroupID    uuid.UUID       `column:"group_id" json:"groupId"`
		Title      string          `column:"title" json:"title"`
		Percentage decimal.Decimal `column:"percentage" json:"percentage"`
		Rank       int             `column:"rank" json:"rank"`
	}

	GroupRankingService struct {
		*psql.Readonly[GroupRanking]
	}
)

func newOverallPercentageService(ex *psql.Executor) *OverallPercentageService {
	return &OverallPercentageService{psql.NewReadonly[OverallPercentage](ex, string(OverallPercentages))}
}

func (s *OverallPercentageService) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]OverallPercentage, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"schedule_id": scheduleID}, OrderBy: "percentage", OrderDirection: psql.Desc})
}

func (s *OverallPercentageService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]OverallPercentage, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"student_id": studentID}})
}

// Top returns the n highest percentages.
func (s *OverallPercentageService) Top(ctx context.Context, n int) ([]OverallPercentage, error) {
	return s.FindMany(ctx, psql.Query{OrderBy: "percentage", OrderDirection: psql.Desc, Limit: n})
}

func (s *OverallPercentageService) Refresh(ctx context.Context) error {
	return refreshView(ctx, s.Executor(), s.Table())
}

func newGroupRankingService(ex *psql.Executor) *GroupRankingService {
	return &GroupRankingService{psql.NewReadonly[GroupRanking](ex, string(GroupRankings))}
}

func (s *GroupRankingService) FindByGroup(ctx context.Context, groupID uuid.UUID) (*GroupRanking, error) {
	return s.FindOne(ctx, psql.Where{"group_id": groupID})
}

// Top returns the n best ranked groups.
func (s *GroupRankingService) Top(ctx context.Context, n int) ([]GroupRanking, error) {
	return s.FindMany(ctx, psql.Query{OrderBy: "rank", Limit: n})
}

// Refresh recomputes the rankings. Refresh overall percentages first, the
// rankings are built from them.
func (s *GroupRankingService) Refresh(ctx context.Context) error {
	return refreshView(ctx, s.Executor(), s.Table())
}

func refreshView(ctx context.Context, ex *psql.Executor, view string) error {
	quoted, err := psql.Quote(view)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, "REFRESH MATERIALIZED VIEW "+quoted)
	return err
}
