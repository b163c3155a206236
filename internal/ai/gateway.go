// Package ai is the typed gateway to the language model that produces every artifact.
package ai

import "context"

// Gateway is the typed contract of the AI capability. Each call returns the id of the
// AIRun that produced the result. Failures carry the upstream_failure code and are
// never retried here.
type Gateway interface {
	StructureRequirements(ctx context.Context, req StructureRequirementsRequest) (*StructureRequirementsResult, error)
	ExtractFeatures(ctx context.Context, req ExtractFeaturesRequest) (*ExtractFeaturesResult, error)
	EstimateTimelineAndCost(ctx context.Context, req EstimateRequest) (*EstimateResult, error)
	RecommendTechStack(ctx context.Context, req TechStackRequest) (*TechStackResult, error)
	GenerateUserFlows(ctx context.Context, req UserFlowsRequest) (*UserFlowsResult, error)
	GenerateWireframes(ctx context.Context, req WireframesRequest) (*WireframesResult, error)
	RegenerateEstimateSection(ctx context.Context, req RegenerateSectionRequest) (*SectionResult, error)
	// Provider names the backing model provider, e.g. "openai".
	Provider() string
}
