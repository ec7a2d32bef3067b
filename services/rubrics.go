package services

import (
	"context"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	RubricTemplate struct {
		ID          uuid.UUID `column:"id" json:"id"`
		Name        string    `column:"name" json:"name"`
		Description *string   `column:"description" json:"description"`
		Version     int       `column:"version" json:"version"`
		IsActive    bool      `column:"is_active" json:"isActive"`
		CreatedAt   time.Time `column:"created_at" json:"createdAt"`
		UpdatedAt   time.Time `column:"updated_at" json:"updatedAt"`
	}

	NewRubricTemplate struct {
		Name        string  `column:"name"`
		Description *string `column:"description"`
		Version     *int    `column:"version"`
		IsActive    *bool   `column:"is_active"`
	}

	RubricTemplatePatch struct {
		Name        psql.Optional[string] `column:"name" json:"name"`
		Description psql.Optional[string] `column:"description" json:"description"`
		Version     psql.Optional[int]    `column:"version" json:"version"`
		IsActive    psql.Optional[bool]   `column:"is_active" json:"isActive"`
	}

	RubricTemplateService struct {
		*psql.Mutable[RubricTemplate, NewRubricTemplate, RubricTemplatePatch]
	}
)

func newRubricTemplateService(ex *psql.Executor) *RubricTemplateService {
	return &RubricTemplateService{psql.NewMutable[RubricTemplate, NewRubricTemplate, RubricTemplatePatch](ex, string(RubricTemplates))}
}

func (s *RubricTemplateService) ListActive(ctx context.Context) ([]RubricTemplate, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"is_active": true}, OrderBy: "name"})
}

func (s *RubricTemplateService) FindByName(ctx context.Context, name string) (*RubricTemplate, error) {
	return s.FindOne(ctx, psql.Where{"name": name})
}

// Activate makes the template the only active one. If no template has the
// id it fails with ErrNotFound and nothing changes.
func (s *RubricTemplateService) Activate(ctx context.Context, id uuid.UUID) (*RubricTemplate, error) {
	return psql.InTransaction(ctx, s.Executor(), func(ctx context.Context, tx *psql.Executor) (*RubricTemplate, error) {
		templates := newRubricTemplateService(tx)
		if _, err := templates.Update(ctx, psql.Where{"is_active": true}, RubricTemplatePatch{IsActive: psql.Set(false)}); err != nil {
			return nil, err
		}
		activated, err := templates.UpdateOne(ctx, psql.Where{"id": id}, RubricTemplatePatch{IsActive: psql.Set(true)})
		if err != nil {
			return nil, err
		}
		if activated == nil {
			return nil, ErrNotFound
		}
		return activated, nil
	})
}

type (
	RubricCriterion struct {
		ID          uuid.UUID       `column:"id" json:"id"`
		TemplateID  uuid.UUID       `column:"template_id" json:"templateId"`
		Name        string          `column:"name" json:"name"`
		Description *string         `column:"description" json:"description"`
		Weight      decimal.Decimal `column:"weight" json:"weight"`
		MaxScore    decimal.Decimal `column:"max_score" json:"maxScore"`
		Position    int             `column:"position" json:"position"`
	}

	NewRubricCriterion struct {
		TemplateID  uuid.UUID       `column:"template_id"`
		Name        string          `column:"name"`
		Description *string         `column:"description"`
		Weight      decimal.Decimal `column:"weight"`
		MaxScore    decimal.Decimal `column:"max_score"`
		Position    int             `column:"position"`
	}

	RubricCriterionPatch struct {
		Name        psql.Optional[string]          `column:"name" json:"name"`
		Description psql.Optional[string]          `column:"description" json:"description"`
		Weight      psql.Optional[decimal.Decimal] `column:"weight" json:"weight"`
		MaxScore    psql.Optional[decimal.Decimal] `column:"max_score" json:"maxScore"`
		Position    psql.Optional[int]             `column:"position" json:"position"`
	}

	RubricCriterionService struct {
		*psql.Mutable[RubricCriterion, NewRubricCriterion, RubricCriterionPatch]
	}
)

func newRubricCriterionService(ex *psql.Executor) *RubricCriterionService {
	return &RubricCriterionService{psql.NewMutable[RubricCriterion, NewRubricCriterion, RubricCriterionPatch](ex, string(RubricCriteria))}
}

func (s *RubricCriterionService) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]RubricCriterion, error) {
	return s.FindMany(ctx, byPosition(psql.Where{"template_id": templateID}))
}

// TotalWeight sums the weights of a template's criteria.
func (s *RubricCriterionService) TotalWeight(ctx context.Context, templateID uuid.UUID) (decimal.Decimal, error) {
	criteria, err := s.ListByTemplate(ctx, templateID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range criteria {
		total = total.Add(c.Weight)
	}
	return total, nil
}

type (
	RubricScaleLevel struct {
		ID          uuid.UUID       `column:"id" json:"id"`
		TemplateID  uuid.UUID       `column:"template_id" json:"templateId"`
		Label       string          `column:"label" json:"label"`
		Score       decimal.Decimal `column:"score" json:"score"`
		Description *string         `column:"description" json:"description"`
		Position    int             `column:"position" json:"position"`
	}

	NewRubricScaleLevel struct {
		TemplateID  uuid.UUID       `column:"template_id"`
		Label       string          `column:"label"`
		Score       decimal.Decimal `column:"score"`
		Description *string         `column:"description"`
		Position    int             `column:"position"`
	}

	RubricScaleLevelPatch struct {
		Label       psql.Optional[string]          `column:"label" json:"label"`
		Score       psql.Optional[decimal.Decimal] `column:"score" json:"score"`
		Description psql.Optional[string]          `column:"description" json:"description"`
		Position    psql.Optional[int]             `column:"position" json:"position"`
	}

	RubricScaleLevelService struct {
		*psql.Mutable[RubricScaleLevel, NewRubricScaleLevel, RubricScaleLevelPatch]
	}
)

func newRubricScaleLevelService(ex *psql.Executor) *RubricScaleLevelService {
	return &RubricScaleLevelService{psql.NewMutable[RubricScaleLevel, NewRubricScaleLevel, RubricScaleLevelPatch](ex, string(RubricScaleLevels))}
}

func (s *RubricScaleLevelService) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]RubricScaleLevel, error) {
	return s.FindMany(ctx, byPosition(psql.Where{"template_id": templateID}))
}
