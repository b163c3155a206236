// Package tasks defines the asynq jobs that run generations outside the request.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/services"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"go.uber.org/zap"
)

const (
	typePrefix = "generation:"
	// Queue is the asynq queue generation tasks run on.
	Queue      = "generation"
	maxRetry   = 3
	runTimeout = 5 * time.Minute
)

// GenerationPayload is the task payload for every family. UpstreamID pins the upstream
// snapshot for downstream families; InputIDs only applies to requirements.
type GenerationPayload struct {
	ProjectID   uuid.UUID   `json:"projectId"`
	Caller      auth.Caller `json:"caller"`
	UpstreamID  *uuid.UUID  `json:"upstreamId,omitempty"`
	Instruction string      `json:"instruction,omitempty"`
	InputIDs    []uuid.UUID `json:"inputIds,omitempty"`
}

// TypeFor returns the asynq task type of family.
func TypeFor(family models.ArtifactFamily) string {
	return typePrefix + string(family)
}

// FamilyOf parses a task type produced by TypeFor.
func FamilyOf(taskType string) (models.ArtifactFamily, bool) {
	f := models.ArtifactFamily(strings.TrimPrefix(taskType, typePrefix))
	if !strings.HasPrefix(taskType, typePrefix) || !f.Valid() {
		return "", false
	}
	return f, true
}

// NewGenerationTask builds the task for one generation of family.
func NewGenerationTask(family models.ArtifactFamily, p GenerationPayload) (*asynq.Task, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown artifact family %q", family)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode generation payload: %w", err)
	}
	return asynq.NewTask(TypeFor(family), b, asynq.Queue(Queue), asynq.MaxRetry(maxRetry), asynq.Timeout(runTimeout)), nil
}

// Enqueuer queues generations for the worker.
type Enqueuer interface {
	EnqueueGeneration(ctx context.Context, family models.ArtifactFamily, p GenerationPayload) (*asynq.TaskInfo, error)
}

type asynqEnqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) Enqueuer {
	return &asynqEnqueuer{client: client}
}

func (e *asynqEnqueuer) EnqueueGeneration(ctx context.Context, family models.ArtifactFamily, p GenerationPayload) (*asynq.TaskInfo, error) {
	task, err := NewGenerationTask(family, p)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "build generation task failed")
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "enqueue generation failed")
	}
	logger.FromContext(ctx).Info("generation enqueued",
		zap.String("task_id", info.ID),
		zap.String("family", string(family)),
		zap.String("project_id", p.ProjectID.String()))
	return info, nil
}

type requirementGenerator interface {
	Generate(ctx context.Context, caller auth.Caller, in services.GenerateRequirementsInput) (*models.RequirementSnapshot, error)
}

type estimateGenerator interface {
	Generate(ctx context.Context, caller auth.Caller, in services.GenerateEstimateInput) (*models.EstimateSnapshot, error)
}

type techStackGenerator interface {
	Generate(ctx context.Context, caller auth.Caller, in services.GenerateFromRequirementsInput) (*models.TechStackRecommendation, error)
}

type userFlowGenerator interface {
	Generate(ctx context.Context, caller auth.Caller, in services.GenerateFromRequirementsInput) (*models.UserFlowSnapshot, error)
}

type wireframeGenerator interface {
	Generate(ctx context.Context, caller auth.Caller, in services.GenerateWireframesInput) (*models.WireframeSnapshot, error)
}

// Generators are the orchestrators a worker runs.
type Generators struct {
	Requirements requirementGenerator
	Estimates    estimateGenerator
	TechStacks   techStackGenerator
	UserFlows    userFlowGenerator
	Wireframes   wireframeGenerator
}

// GenerationTaskHandler runs queued generations through the same orchestrators as the API.
type GenerationTaskHandler struct {
	gen Generators
}

func NewGenerationTaskHandler(gen Generators) *GenerationTaskHandler {
	return &GenerationTaskHandler{gen: gen}
}

// Register routes every generation task type to h.
func (h *GenerationTaskHandler) Register(mux *asynq.ServeMux) {
	for _, f := range models.Families {
		mux.HandleFunc(TypeFor(f), h.Handle)
	}
}

func (h *GenerationTaskHandler) Handle(ctx context.Context, t *asynq.Task) error {
	family, ok := FamilyOf(t.Type())
	if !ok {
		return fmt.Errorf("unknown task type %q: %w", t.Type(), asynq.SkipRetry)
	}
	var p GenerationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid generation task payload", zap.String("type", t.Type()), zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	log := logger.L().With(
		zap.String("family", string(family)),
		zap.String("project_id", p.ProjectID.String()),
		zap.String("user_id", p.Caller.UserID.String()))
	if id, ok := asynq.GetTaskID(ctx); ok {
		log = log.With(zap.String("task_id", id))
	}
	ctx = logger.WithContext(auth.WithCaller(ctx, p.Caller), log)
	log.Info("handling generation task")

	version, err := h.run(ctx, family, p)
	if err != nil {
		if retryable(err) {
			return err
		}
		log.Warn("generation task rejected", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log.Info("generation task done", zap.Int("version", version))
	return nil
}

func (h *GenerationTaskHandler) run(ctx context.Context, family models.ArtifactFamily, p GenerationPayload) (int, error) {
	c := p.Caller
	switch family {
	case models.FamilyRequirement:
		s, err := h.gen.Requirements.Generate(ctx, c, services.GenerateRequirementsInput{ProjectID: p.ProjectID, InputIDs: p.InputIDs, Instruction: p.Instruction})
		if err != nil {
			return 0, err
		}
		return s.Version, nil
	case models.FamilyEstimate:
		s, err := h.gen.Estimates.Generate(ctx, c, services.GenerateEstimateInput{ProjectID: p.ProjectID, RequirementSnapshotID: p.UpstreamID, Instruction: p.Instruction})
		if err != nil {
			return 0, err
		}
		return s.Version, nil
	case models.FamilyTechStack:
		s, err := h.gen.TechStacks.Generate(ctx, c, services.GenerateFromRequirementsInput{ProjectID: p.ProjectID, RequirementSnapshotID: p.UpstreamID, Instruction: p.Instruction})
		if err != nil {
			return 0, err
		}
		return s.Version, nil
	case models.FamilyUserFlow:
		s, err := h.gen.UserFlows.Generate(ctx, c, services.GenerateFromRequirementsInput{ProjectID: p.ProjectID, RequirementSnapshotID: p.UpstreamID, Instruction: p.Instruction})
		if err != nil {
			return 0, err
		}
		return s.Version, nil
	case models.FamilyWireframe:
		s, err := h.gen.Wireframes.Generate(ctx, c, services.GenerateWireframesInput{ProjectID: p.ProjectID, UserFlowSnapshotID: p.UpstreamID, Instruction: p.Instruction})
		if err != nil {
			return 0, err
		}
		return s.Version, nil
	}
	return 0, appErr.Newf(appErr.CodeInvalid, "unknown artifact family %q", family)
}

// retryable reports whether asynq should run the task again. Caller mistakes never
// succeed on retry; provider failures and lost version races might.
func retryable(err error) bool {
	switch appErr.CodeOf(err) {
	case appErr.CodeUpstreamFailure, appErr.CodeConflict, appErr.CodeInternal, appErr.CodeUnavailable, appErr.CodeDeadline, appErr.CodeUnknown:
		return true
	}
	return false
}
