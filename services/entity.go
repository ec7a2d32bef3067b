package services

import (
	"errors"

	"github.com/defenseportal/psql"
)

// Entity names one table or view of the portal. It is also the table name.
type Entity string

const (
	Users                   Entity = "users"
	Sessions                Entity = "sessions"
	PasswordResets          Entity = "password_resets"
	ThesisGroups            Entity = "thesis_groups"
	GroupMembers            Entity = "group_members"
	DefenseSchedules        Entity = "defense_schedules"
	SchedulePanelists       Entity = "schedule_panelists"
	RubricTemplates         Entity = "rubric_templates"
	RubricCriteria          Entity = "rubric_criteria"
	Evaluations             Entity = "evaluations"
	EvaluationScores        Entity = "evaluation_scores"
	AuditLogs               Entity = "audit_logs"
	Students                Entity = "students"
	StaffProfiles           Entity = "staff_profiles"
	StudentEvaluations      Entity = "student_evaluations"
	StudentEvaluationScores Entity = "student_evaluation_scores"
	StudentFeedbackForms    Entity = "student_feedback_forms"
	EvaluationExtras        Entity = "evaluation_extras"
	PanelistProfiles        Entity = "panelist_profiles"
	RubricScaleLevels       Entity = "rubric_scale_levels"
	Notifications           Entity = "notifications"
	PushSubscriptions       Entity = "push_subscriptions"

	// materialized views
	OverallPercentages Entity = "overall_percentages"
	GroupRankings      Entity = "group_rankings"
)

// ErrUnknownEntity is returned by Registry.Get for a name outside the fixed
// set of entities.
var ErrUnknownEntity = errors.New("services: unknown entity")

// ErrNotFound is returned by operations that must change an existing row
// and roll back when there is none.
var ErrNotFound = errors.New("services: not found")

// Service is implemented by every entity service. The generic accessors
// embedded in each service provide both methods.
type Service interface {
	Table() string
	Executor() *psql.Executor
}

// Entities returns every entity in registration order.
func Entities() []Entity {
	return []Entity{
		Users, Sessions, PasswordResets, ThesisGroups, GroupMembers,
		DefenseSchedules, SchedulePanelists, RubricTemplates, RubricCriteria,
		Evaluations, EvaluationScores, AuditLogs, Students, StaffProfiles,
		StudentEvaluations, StudentEvaluationScores, StudentFeedbackForms,
		EvaluationExtras, PanelistProfiles, RubricScaleLevels, Notifications,
		PushSubscriptions, OverallPercentages, GroupRankings,
	}
}

// IsView reports whether the entity is a read-only materialized view.
func (e Entity) IsView() bool {
	return e == OverallPercentages || e == GroupRankings
}

func (e Entity) String() string {
	return string(e)
}
