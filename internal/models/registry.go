package models

// All returns one zero value of every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Organization{},
		&OrganizationMember{},
		&Project{},
		&ProjectMember{},
		&ProjectInput{},
		&AIRun{},
		&RequirementSnapshot{},
		&FeatureItem{},
		&EstimateSnapshot{},
		&EstimateLineItem{},
		&TechStackRecommendation{},
		&UserFlowSnapshot{},
		&UserFlow{},
		&WireframeSnapshot{},
		&WireframeScreen{},
		&ProjectActivity{},
	}
}
