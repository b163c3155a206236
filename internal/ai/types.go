package ai

import (
	"strings"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
)

// Task names one typed AI capability. It is also the AIRun.Task value and the prompt key.
type Task string

const (
	TaskStructureRequirements     Task = "structure_requirements"
	TaskExtractFeatures           Task = "extract_features"
	TaskEstimateTimelineAndCost   Task = "estimate_timeline_and_cost"
	TaskRecommendTechStack        Task = "recommend_tech_stack"
	TaskGenerateUserFlows         Task = "generate_user_flows"
	TaskGenerateWireframes        Task = "generate_wireframes"
	TaskRegenerateEstimateSection Task = "regenerate_estimate_section"
)

// AuditContext attributes an AI call to a tenant, project and user.
type AuditContext struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	UserID         uuid.UUID
}

type Feature struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Priority    models.Priority   `json:"priority" validate:"oneof=MUST SHOULD COULD WONT"`
	Complexity  models.Complexity `json:"complexity" validate:"oneof=LOW MEDIUM HIGH"`
}

type LineItem struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	HoursMin    float64 `json:"hoursMin" validate:"gte=0"`
	HoursMax    float64 `json:"hoursMax" validate:"gtefield=HoursMin"`
	CostMin     float64 `json:"costMin" validate:"gte=0"`
	CostMax     float64 `json:"costMax" validate:"gtefield=CostMin"`
}

type Estimation struct {
	TimelineMinDays int                    `json:"timelineMinDays" validate:"gte=0"`
	TimelineMaxDays int                    `json:"timelineMaxDays" validate:"gtefield=TimelineMinDays"`
	CostMin         float64                `json:"costMin" validate:"gte=0"`
	CostMax         float64                `json:"costMax" validate:"gtefield=CostMin"`
	ConfidenceScore float64                `json:"confidenceScore" validate:"gte=0,lte=1"`
	Assumptions     []string               `json:"assumptions"`
	Phases          []models.TimelinePhase `json:"phases"`
	LineItems       []LineItem             `json:"lineItems" validate:"dive"`
}

type StackRecommendation struct {
	Frontend       []string `json:"frontend"`
	Backend        []string `json:"backend" validate:"min=1"`
	Database       []string `json:"database"`
	Infrastructure []string `json:"infrastructure"`
	Integrations   []string `json:"integrations"`
	Rationale      string   `json:"rationale" validate:"required"`
}

type Flow struct {
	Name        string   `json:"name" validate:"required"`
	Actor       string   `json:"actor"`
	Description string   `json:"description"`
	Steps       []string `json:"steps" validate:"min=1"`
}

type Screen struct {
	Name       string   `json:"name" validate:"required"`
	FlowName   string   `json:"flowName"`
	Purpose    string   `json:"purpose"`
	Components []string `json:"components"`
	Layout     string   `json:"layout"`
}

type StructureRequirementsRequest struct {
	Texts       []string
	Instruction string
	Audit       AuditContext
}

type StructureRequirementsResult struct {
	Structured  models.StructuredRequirements
	Assumptions []string
	RunID       string
}

type ExtractFeaturesRequest struct {
	Structured models.StructuredRequirements
	Audit      AuditContext
}

type ExtractFeaturesResult struct {
	Features []Feature
	RunID    string
}

type EstimateRequest struct {
	Structured  models.StructuredRequirements
	Features    []Feature
	Currency    string
	Instruction string
	Audit       AuditContext
}

type EstimateResult struct {
	Estimation Estimation
	RunID      string
}

type TechStackRequest struct {
	Structured  models.StructuredRequirements
	Features    []Feature
	Instruction string
	Audit       AuditContext
}

type TechStackResult struct {
	Stack StackRecommendation
	RunID string
}

type UserFlowsRequest struct {
	Structured  models.StructuredRequirements
	Features    []Feature
	Instruction string
	Audit       AuditContext
}

type UserFlowsResult struct {
	Flows []Flow
	RunID string
}

type WireframesRequest struct {
	Flows       []Flow
	Instruction string
	Audit       AuditContext
}

type WireframesResult struct {
	Screens []Screen
	RunID   string
}

type RegenerateSectionRequest struct {
	Section     models.EstimateSection
	Current     models.EstimateBreakdown
	Structured  models.StructuredRequirements
	Features    []Feature
	Currency    string
	Instruction string
	Audit       AuditContext
}

// SectionResult carries the replacement for exactly one estimate section.
type SectionResult struct {
	Section     models.EstimateSection
	Timeline    *models.TimelineSection
	Cost        *models.CostSection
	Assumptions []string
	LineItems   []LineItem
	RunID       string
}

// FeaturesFromItems converts stored feature rows into the gateway shape.
func FeaturesFromItems(items []models.FeatureItem) []Feature {
	out := make([]Feature, 0, len(items))
	for _, it := range items {
		out = append(out, Feature{
			Title:       it.Title,
			Description: it.Description,
			Priority:    it.Priority,
			Complexity:  it.Complexity,
		})
	}
	return out
}

// FlowsFromRows converts stored user flows into the gateway shape.
func FlowsFromRows(rows []models.UserFlow) []Flow {
	out := make([]Flow, 0, len(rows))
	for _, r := range rows {
		out = append(out, Flow{Name: r.Name, Actor: r.Actor, Description: r.Description, Steps: r.Steps})
	}
	return out
}

func (f *Feature) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Priority = models.Priority(strings.ToUpper(strings.TrimSpace(string(f.Priority))))
	if f.Priority == "" {
		f.Priority = models.PriorityShould
	}
	f.Complexity = models.Complexity(strings.ToUpper(strings.TrimSpace(string(f.Complexity))))
	if f.Complexity == "" {
		f.Complexity = models.ComplexityMedium
	}
}
