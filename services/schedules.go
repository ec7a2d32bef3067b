package services

import (
	"context"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
)

const (
	ScheduleScheduled = "scheduled"
	ScheduleOngoing   = "ongoing"
	ScheduleCompleted = "completed"
	ScheduleCancelled = "cancelled"

	PanelistChair  = "chair"
	PanelistMember = "member"
)

type (
	DefenseSchedule struct {
		ID               uuid.UUID  `column:"id" json:"id"`
		GroupID          uuid.UUID  `column:"group_id" json:"groupId"`
		ScheduledAt      time.Time  `column:"scheduled_at" json:"scheduledAt"`
		Room             *string    `column:"room" json:"room"`
		Status           string     `column:"status" json:"status"`
		RubricTemplateID *uuid.UUID `column:"rubric_template_id" json:"rubricTemplateId"`
		CreatedBy        *uuid.UUID `column:"created_by" json:"createdBy"`
		CreatedAt        time.Time  `column:"created_at" json:"createdAt"`
		UpdatedAt        time.Time  `column:"updated_at" json:"updatedAt"`
	}

	NewDefenseSchedule struct {
		GroupID          uuid.UUID  `column:"group_id"`
		ScheduledAt      time.Time  `column:"scheduled_at"`
		Room             *string    `column:"room"`
		Status           *string    `column:"status"`
		RubricTemplateID *uuid.UUID `column:"rubric_template_id"`
		CreatedBy        *uuid.UUID `column:"created_by"`
	}

	DefenseSchedulePatch struct {
		ScheduledAt      psql.Optional[time.Time] `column:"scheduled_at" json:"scheduledAt"`
		Room             psql.Optional[string]    `column:"room" json:"room"`
		Status           psql.Optional[string]    `column:"status" json:"status"`
		RubricTemplateID psql.Optional[uuid.UUID] `column:"rubric_template_id" json:"rubricTemplateId"`
	}

	DefenseScheduleService struct {
		*psql.Mutable[DefenseSchedule, NewDefenseSchedule, DefenseSchedulePatch]
	}
)

func newDefenseScheduleService(ex *psql.Executor) *DefenseScheduleService {
	return &DefenseScheduleService{psql.NewMutable[DefenseSchedule, NewDefenseSchedule, DefenseSchedulePatch](ex, string(DefenseSchedules))}
}

func (s *DefenseScheduleService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]DefenseSchedule, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"group_id": groupID}, OrderBy: "scheduled_at"})
}

// ListByPanelist lists the schedules a staff user sits on.
func (s *DefenseScheduleService) ListByPanelist(ctx context.Context, staffID uuid.UUID) ([]DefenseSchedule, error) {
	return psql.QueryAll[DefenseSchedule](ctx, s.Executor(), `SELECT s.* FROM "defense_schedules" s
		JOIN "schedule_panelists" p ON p."schedule_id" = s."id"
		WHERE p."staff_id" = $1 ORDER BY s."scheduled_at" ASC`, staffID)
}

// ListUpcoming lists scheduled defenses from the given time on, soonest
// first. A non-positive limit lists all of them.
func (s *DefenseScheduleService) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]DefenseSchedule, error) {
	sql := `SELECT * FROM "defense_schedules" WHERE "scheduled_at" >= $1 AND "status" = $2 ORDER BY "scheduled_at" ASC`
	values := []interface{}{from, ScheduleScheduled}
	if limit > 0 {
		sql += " LIMIT $3"
		values = append(values, limit)
	}
	return psql.QueryAll[DefenseSchedule](ctx, s.Executor(), sql, values...)
}

func (s *DefenseScheduleService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*DefenseSchedule, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id}, DefenseSchedulePatch{Status: psql.Set(status)})
}

type (
	SchedulePanelist struct {
		ScheduleID uuid.UUID `column:"schedule_id" json:"scheduleId"`
		StaffID    uuid.UUID `column:"staff_id" json:"staffId"`
		Role       string    `column:"role" json:"role"`
	}

	NewSchedulePanelist struct {
		ScheduleID uuid.UUID `column:"schedule_id"`
		StaffID    uuid.UUID `column:"staff_id"`
		Role       *string   `column:"role"`
	}

	SchedulePanelistService struct {
		*psql.JoinTable[SchedulePanelist, NewSchedulePanelist]
	}
)

func newSchedulePanelistService(ex *psql.Executor) *SchedulePanelistService {
	return &SchedulePanelistService{psql.NewJoinTable[SchedulePanelist, NewSchedulePanelist](ex, string(SchedulePanelists))}
}

func (s *SchedulePanelistService) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]SchedulePanelist, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"schedule_id": scheduleID}})
}

func (s *SchedulePanelistService) ListByStaff(ctx context.Context, staffID uuid.UUID) ([]SchedulePanelist, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"staff_id": staffID}})
}

// ReplacePanelists makes panelists the exact panel of the schedule. The
// schedule of each panelist is set to scheduleID.
func (s *SchedulePanelistService) ReplacePanelists(ctx context.Context, scheduleID uuid.UUID, panelists []NewSchedulePanelist) ([]SchedulePanelist, error) {
	rows := make([]NewSchedulePanelist, len(panelists))
	for i, p := range panelists {
		p.ScheduleID = scheduleID
		rows[i] = p
	}
	return s.Replace(ctx, psql.Where{"schedule_id": scheduleID}, rows)
}
