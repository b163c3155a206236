package models

// ArtifactFamily identifies one versioned artifact type.
type ArtifactFamily string

const (
	FamilyRequirement ArtifactFamily = "requirement"
	FamilyEstimate    ArtifactFamily = "estimate"
	FamilyTechStack   ArtifactFamily = "tech_stack"
	FamilyUserFlow    ArtifactFamily = "user_flow"
	FamilyWireframe   ArtifactFamily = "wireframe"
)

// Families lists every versioned family.
var Families = []ArtifactFamily{FamilyRequirement, FamilyEstimate, FamilyTechStack, FamilyUserFlow, FamilyWireframe}

// Table returns a zero model value used to target the family's table.
func (f ArtifactFamily) Table() any {
	switch f {
	case FamilyRequirement:
		return &RequirementSnapshot{}
	case FamilyEstimate:
		return &EstimateSnapshot{}
	case FamilyTechStack:
		return &TechStackRecommendation{}
	case FamilyUserFlow:
		return &UserFlowSnapshot{}
	case FamilyWireframe:
		return &WireframeSnapshot{}
	}
	return nil
}

// Label is the human-readable name used in error messages.
func (f ArtifactFamily) Label() string {
	switch f {
	case FamilyRequirement:
		return "requirement snapshot"
	case FamilyEstimate:
		return "estimate"
	case FamilyTechStack:
		return "tech stack recommendation"
	case FamilyUserFlow:
		return "user flow snapshot"
	case FamilyWireframe:
		return "wireframe snapshot"
	}
	return string(f)
}

// Plural names the family in "generate X first" hints.
func (f ArtifactFamily) Plural() string {
	switch f {
	case FamilyRequirement:
		return "requirements"
	case FamilyEstimate:
		return "an estimate"
	case FamilyTechStack:
		return "a tech stack"
	case FamilyUserFlow:
		return "user flows"
	case FamilyWireframe:
		return "wireframes"
	}
	return string(f)
}

// Stage is the project stage reached once a snapshot of this family exists.
func (f ArtifactFamily) Stage() ProjectStage {
	switch f {
	case FamilyRequirement:
		return StageFeatureDefinition
	case FamilyEstimate:
		return StageEstimation
	case FamilyTechStack:
		return StageTechStack
	case FamilyUserFlow:
		return StageUserFlows
	case FamilyWireframe:
		return StageWireframes
	}
	return StageDraft
}

func (f ArtifactFamily) Valid() bool {
	return f.Table() != nil
}
