// Package aitest provides a testify mock of ai.Gateway.
package aitest

import (
	"context"

	"github.com/scopeforge/engine/internal/ai"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

var _ ai.Gateway = (*Gateway)(nil)

func (g *Gateway) Provider() string { return "mock" }

func (g *Gateway) StructureRequirements(ctx context.Context, req ai.StructureRequirementsRequest) (*ai.StructureRequirementsResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.StructureRequirementsResult)
	return res, args.Error(1)
}

func (g *Gateway) ExtractFeatures(ctx context.Context, req ai.ExtractFeaturesRequest) (*ai.ExtractFeaturesResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.ExtractFeaturesResult)
	return res, args.Error(1)
}

func (g *Gateway) EstimateTimelineAndCost(ctx context.Context, req ai.EstimateRequest) (*ai.EstimateResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.EstimateResult)
	return res, args.Error(1)
}

func (g *Gateway) RecommendTechStack(ctx context.Context, req ai.TechStackRequest) (*ai.TechStackResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.TechStackResult)
	return res, args.Error(1)
}

func (g *Gateway) GenerateUserFlows(ctx context.Context, req ai.UserFlowsRequest) (*ai.UserFlowsResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.UserFlowsResult)
	return res, args.Error(1)
}

func (g *Gateway) GenerateWireframes(ctx context.Context, req ai.WireframesRequest) (*ai.WireframesResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.WireframesResult)
	return res, args.Error(1)
}

func (g *Gateway) RegenerateEstimateSection(ctx context.Context, req ai.RegenerateSectionRequest) (*ai.SectionResult, error) {
	args := g.Called(ctx, req)
	res, _ := args.Get(0).(*ai.SectionResult)
	return res, args.Error(1)
}
