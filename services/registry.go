package services

import (
	"context"
	"fmt"

	"github.com/defenseportal/psql"
)

// Registry holds one service per entity, all bound to the same Executor.
// Build it once per pool with New and share it; Transaction hands out
// registries bound to a transaction.
type Registry struct {
	ex       *psql.Executor
	schema   *schemaGuard
	services map[Entity]Service

	users                   *UserService
	sessions                *SessionService
	passwordResets          *PasswordResetService
	thesisGroups            *ThesisGroupService
	groupMembers            *GroupMemberService
	defenseSchedules        *DefenseScheduleService
	schedulePanelists       *SchedulePanelistService
	rubricTemplates         *RubricTemplateService
	rubricCriteria          *RubricCriterionService
	evaluations             *EvaluationService
	evaluationScores        *EvaluationScoreService
	auditLogs               *AuditLogService
	students                *StudentService
	staffProfiles           *StaffProfileService
	studentEvaluations      *StudentEvaluationService
	studentEvaluationScores *StudentEvaluationScoreService
	studentFeedbackForms    *StudentFeedbackFormService
	evaluationExtras        *EvaluationExtraService
	panelistProfiles        *PanelistProfileService
	rubricScaleLevels       *RubricScaleLevelService
	notifications           *NotificationService
	pushSubscriptions       *PushSubscriptionService
	overallPercentages      *OverallPercentageService
	groupRankings           *GroupRankingService
}

// New creates the registry of an Executor, normally one bound to the pool.
func New(ex *psql.Executor) *Registry {
	return newRegistry(ex, &schemaGuard{})
}

func newRegistry(ex *psql.Executor, schema *schemaGuard) *Registry {
	r := &Registry{
		ex:     ex,
		schema: schema,

		users:                   newUserService(ex),
		sessions:                newSessionService(ex),
		passwordResets:          newPasswordResetService(ex),
		thesisGroups:            newThesisGroupService(ex),
		groupMembers:            newGroupMemberService(ex),
		defenseSchedules:        newDefenseScheduleService(ex),
		schedulePanelists:       newSchedulePanelistService(ex),
		rubricTemplates:         newRubricTemplateService(ex),
		rubricCriteria:          newRubricCriterionService(ex),
		evaluations:             newEvaluationService(ex),
		evaluationScores:        newEvaluationScoreService(ex),
		auditLogs:               newAuditLogService(ex),
		students:                newStudentService(ex),
		staffProfiles:           newStaffProfileService(ex),
		studentEvaluations:      newStudentEvaluationService(ex),
		studentEvaluationScores: newStudentEvaluationScoreService(ex),
		studentFeedbackForms:    newStudentFeedbackFormService(ex),
		evaluationExtras:        newEvaluationExtraService(ex),
		panelistProfiles:        newPanelistProfileService(ex),
		rubricScaleLevels:       newRubricScaleLevelService(ex),
		notifications:           newNotificationService(ex),
		pushSubscriptions:       newPushSubscriptionService(ex, schema),
		overallPercentages:      newOverallPercentageService(ex),
		groupRankings:           newGroupRankingService(ex),
	}
	r.services = map[Entity]Service{
		Users:                   r.users,
		Sessions:                r.sessions,
		PasswordResets:          r.passwordResets,
		ThesisGroups:            r.thesisGroups,
		GroupMembers:            r.groupMembers,
		DefenseSchedules:        r.defenseSchedules,
		SchedulePanelists:       r.schedulePanelists,
		RubricTemplates:         r.rubricTemplates,
		RubricCriteria:          r.rubricCriteria,
		Evaluations:             r.evaluations,
		EvaluationScores:        r.evaluationScores,
		AuditLogs:               r.auditLogs,
		Students:                r.students,
		StaffProfiles:           r.staffProfiles,
		StudentEvaluations:      r.studentEvaluations,
		StudentEvaluationScores: r.studentEvaluationScores,
		StudentFeedbackForms:    r.studentFeedbackForms,
		EvaluationExtras:        r.evaluationExtras,
		PanelistProfiles:        r.panelistProfiles,
		RubricScaleLevels:       r.rubricScaleLevels,
		Notifications:           r.notifications,
		PushSubscriptions:       r.pushSubscriptions,
		OverallPercentages:      r.overallPercentages,
		GroupRankings:           r.groupRankings,
	}
	return r
}

// Executor returns the Executor every service of the registry uses.
func (r *Registry) Executor() *psql.Executor {
	return r.ex
}

// Get returns the service of an entity, or ErrUnknownEntity.
func (r *Registry) Get(entity Entity) (Service, error) {
	s, ok := r.services[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, string(entity))
	}
	return s, nil
}

// Lookup is like Registry.Get but returns the service as its concrete type.
//
//	users, err := services.Lookup[*services.UserService](registry, services.Users)
func Lookup[S Service](r *Registry, entity Entity) (S, error) {
	var zero S
	s, err := r.Get(entity)
	if err != nil {
		return zero, err
	}
	typed, ok := s.(S)
	if !ok {
		return zero, fmt.Errorf("services: %s is served by %T, not %T", entity, s, zero)
	}
	return typed, nil
}

// Transaction runs work in a transaction, or in a savepoint if the registry
// is already bound to one. work receives a new Registry bound to that scope
// and must use it, not r, for its statements to be part of the transaction.
func (r *Registry) Transaction(ctx context.Context, work func(ctx context.Context, tx *Registry) error) error {
	return r.ex.Transaction(ctx, func(ctx context.Context, ex *psql.Executor) error {
		return work(ctx, newRegistry(ex, r.schema))
	})
}

// Transaction is like Registry.Transaction but passes through the value
// produced by work.
func Transaction[T any](ctx context.Context, r *Registry, work func(ctx context.Context, tx *Registry) (T, error)) (T, error) {
	return psql.InTransaction(ctx, r.ex, func(ctx context.Context, ex *psql.Executor) (T, error) {
		return work(ctx, newRegistry(ex, r.schema))
	})
}

func (r *Registry) Users() *UserService { return r.users }
func (r *Registry) Sessions() *SessionService { return r.sessions }
func (r *Registry) PasswordResets() *PasswordResetService { return r.passwordResets }
func (r *Registry) ThesisGroups() *ThesisGroupService { return r.thesisGroups }
func (r *Registry) GroupMembers() *GroupMemberService { return r.groupMembers }
func (r *Registry) DefenseSchedules() *DefenseScheduleService { return r.defenseSchedules }
func (r *Registry) SchedulePanelists() *SchedulePanelistService { return r.schedulePanelists }
func (r *Registry) RubricTemplates() *RubricTemplateService { return r.rubricTemplates }
func (r *Registry) RubricCriteria() *RubricCriterionService { return r.rubricCriteria }
func (r *Registry) Evaluations() *EvaluationService { return r.evaluations }
func (r *Registry) EvaluationScores() *EvaluationScoreService { return r.evaluationScores }
func (r *Registry) AuditLogs() *AuditLogService { return r.auditLogs }
func (r *Registry) Students() *StudentService { return r.students }
func (r *Registry) StaffProfiles() *StaffProfileService { return r.staffProfiles }
func (r *Registry) StudentEvaluations() *StudentEvaluationService { return r.studentEvaluations }
func (r *Registry) StudentEvaluationScores() *StudentEvaluationScoreService { return r.studentEvaluationScores }
func (r *Registry) StudentFeedbackForms() *StudentFeedbackFormService { return r.studentFeedbackForms }
func (r *Registry) EvaluationExtras() *EvaluationExtraService { return r.evaluationExtras }
func (r *Registry) PanelistProfiles() *PanelistProfileService { return r.panelistProfiles }
func (r *Registry) RubricScaleLevels() *RubricScaleLevelService { return r.rubricScaleLevels }
func (r *Registry) Notifications() *NotificationService { return r.notifications }
func (r *Registry) PushSubscriptions() *PushSubscriptionService { return r.pushSubscriptions }
func (r *Registry) OverallPercentages() *OverallPercentageService { return r.overallPercentages }
func (r *Registry) GroupRankings() *GroupRankingService { return r.groupRankings }
