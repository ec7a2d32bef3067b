package services

import (
	"context"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
)

type (
	Student struct {
		ID        uuid.UUID `column:"id" json:"id"`
		UserID    uuid.UUID `column:"user_id" json:"userId"`
		StudentNo string    `column:"student_no" json:"studentNo"`
		Program   *string   `column:"program" json:"program"`
		YearLevel *int      `column:"year_level" json:"yearLevel"`
		CreatedAt time.Time `column:"created_at" json:"createdAt"`
	}

	NewStudent struct {
		UserID    uuid.UUID `column:"user_id"`
		StudentNo string    `column:"student_no"`
		Program   *string   `column:"program"`
		YearLevel *int      `column:"year_level"`
	}

	StudentPatch struct {
		StudentNo psql.Optional[string] `column:"student_no" json:"studentNo"`
		Program   psql.Optional[string] `column:"program" json:"program"`
		YearLevel psql.Optional[int]    `column:"year_level" json:"yearLevel"`
	}

	StudentService struct {
		*psql.Mutable[Student, NewStudent, StudentPatch]
	}
)

func newStudentService(ex *psql.Executor) *StudentService {
	return &StudentService{psql.NewMutable[Student, NewStudent, StudentPatch](ex, string(Students))}
}

func (s *StudentService) FindByUser(ctx context.Context, userID uuid.UUID) (*Student, error) {
	return s.FindOne(ctx, psql.Where{"user_id": userID})
}

func (s *StudentService) FindByStudentNo(ctx context.Context, studentNo string) (*Student, error) {
	return s.FindOne(ctx, psql.Where{"student_no": studentNo})
}

type (
	StaffProfile struct {
		ID         uuid.UUID `column:"id" json:"id"`
		UserID     uuid.UUID `column:"user_id" json:"userId"`
		Department *string   `column:"department" json:"department"`
		Position   *string   `column:"position" json:"position"`
		CreatedAt  time.Time `column:"created_at" json:"createdAt"`
	}

	NewStaffProfile struct {
		UserID     uuid.UUID `column:"user_id"`
		Department *string   `column:"department"`
		Position   *string   `column:"position"`
	}

	StaffProfilePatch struct {
		Department psql.Optional[string] `column:"department" json:"department"`
		Position   psql.Optional[string] `column:"position" json:"position"`
	}

	StaffProfileService struct {
		*psql.Mutable[StaffProfile, NewStaffProfile, StaffProfilePatch]
	}
)

func newStaffProfileService(ex *psql.Executor) *StaffProfileService {
	return &StaffProfileService{psql.NewMutable[StaffProfile, NewStaffProfile, StaffProfilePatch](ex, string(StaffProfiles))}
}

func (s *StaffProfileService) FindByUser(ctx context.Context, userID uuid.UUID) (*StaffProfile, error) {
	return s.FindOne(ctx, psql.Where{"user_id": userID})
}

type (
	// PanelistProfile describes a staff user when sitting on defense panels.
	PanelistProfile struct {
		ID          uuid.UUID `column:"id" json:"id"`
		StaffID     uuid.UUID `column:"staff_id" json:"staffId"`
		Expertise   *string   `column:"expertise" json:"expertise"`
		Affiliation *string   `column:"affiliation" json:"affiliation"`
		CreatedAt   time.Time `column:"created_at" json:"createdAt"`
	}

	NewPanelistProfile struct {
		StaffID     uuid.UUID `column:"staff_id"`
		Expertise   *string   `column:"expertise"`
		Affiliation *string   `column:"affiliation"`
	}

	PanelistProfilePatch struct {
		Expertise   psql.Optional[string] `column:"expertise" json:"expertise"`
		Affiliation psql.Optional[string] `column:"affiliation" json:"affiliation"`
	}

	PanelistProfileService struct {
		*psql.Mutable[PanelistProfile, NewPanelistProfile, PanelistProfilePatch]
	}
)

func newPanelistProfileService(ex *psql.Executor) *PanelistProfileService {
	return &PanelistProfileService{psql.NewMutable[PanelistProfile, NewPanelistProfile, PanelistProfilePatch](ex, string(PanelistProfiles))}
}

func (s *PanelistProfileService) FindByStaff(ctx context.Context, staffID uuid.UUID) (*PanelistProfile, error) {
	return s.FindOne(ctx, psql.Where{"staff_id": staffID})
}
