package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/pkg/database"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"github.com/scopeforge/engine/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Deps holds the collaborators shared by every generation service.
type Deps struct {
	DB        *gorm.DB
	Projects  repository.ProjectRepository
	Access    AccessResolver
	Versioner Versioner
	Activity  ActivityRecorder
	Gateway   ai.Gateway
	Metrics   *metrics.Metrics
}

// writeFunc inserts a snapshot and its children at version and describes the event.
type writeFunc func(tx *gorm.DB, version int) (summary string, payload models.ActivityPayload, err error)

// pipeline is the skeleton every orchestrator follows.
type pipeline struct {
	Deps
	family models.ArtifactFamily
}

func (p *pipeline) project(ctx context.Context, projectID uuid.UUID, caller auth.Caller) (*models.Project, error) {
	return loadProject(ctx, p.Projects, p.Access, projectID, caller)
}

func (p *pipeline) audit(project *models.Project, caller auth.Caller) ai.AuditContext {
	return ai.AuditContext{OrganizationID: project.OrganizationID, ProjectID: project.ID, UserID: caller.UserID}
}

// commit writes one generation atomically: project lock, version, rows, stage, activity.
func (p *pipeline) commit(ctx context.Context, project *models.Project, caller auth.Caller, write writeFunc) (version int, err error) {
	tx := p.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	locked, err := lockProject(tx, project.ID)
	if err != nil {
		return 0, err
	}

	version, err = p.Versioner.NextVersion(tx, project.ID, p.family)
	if err != nil {
		return 0, err
	}

	summary, payload, err := write(tx, version)
	if err != nil {
		return 0, insertError(err, p.family, version)
	}

	if err = advanceStage(tx, locked, p.family.Stage()); err != nil {
		return 0, err
	}

	if _, err = p.Activity.Record(tx, ActivityEntry{
		OrganizationID: project.OrganizationID,
		ProjectID:      project.ID,
		ActorUserID:    caller.UserID,
		Summary:        summary,
		Payload:        payload,
	}); err != nil {
		return 0, activityError(err)
	}

	if err = tx.Commit().Error; err != nil {
		return 0, insertError(err, p.family, version)
	}
	return version, nil
}

// observe reports the outcome of one generation and logs it.
func (p *pipeline) observe(ctx context.Context, projectID uuid.UUID, start time.Time, version int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(appErr.CodeOf(err))
	}
	p.Metrics.ObserveGeneration(string(p.family), outcome, time.Since(start))

	log := logger.FromContext(ctx).With(zap.String("family", string(p.family)), zap.String("project_id", projectID.String()))
	if err != nil {
		log.Warn("generation failed", zap.String("outcome", outcome), zap.Error(err))
		return
	}
	log.Info("generation committed", zap.Int("version", version), zap.Duration("duration", time.Since(start)))
}

// lockProject reloads the project inside tx, taking a row lock where the dialect supports it.
func lockProject(tx *gorm.DB, projectID uuid.UUID) (*models.Project, error) {
	q := tx
	if database.IsPostgres(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.Project
	if err := q.First(&p, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "project not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "lock project failed")
	}
	return &p, nil
}

// advanceStage moves the project forward to target. It never moves it back.
func advanceStage(tx *gorm.DB, project *models.Project, target models.ProjectStage) error {
	next, changed := project.Stage.Advance(target)
	if !changed {
		return nil
	}
	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).Update("stage", next).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "advance project stage failed")
	}
	project.Stage = next
	return nil
}

// insertError surfaces a lost version race as conflict.
func insertError(err error, family models.ArtifactFamily, version int) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return appErr.Wrap(err, appErr.CodeConflict,
			fmt.Sprintf("%s version %d was created concurrently. Retry the generation.", family.Label(), version))
	}
	if _, ok := appErr.As(err); ok {
		return err
	}
	return appErr.Wrap(err, appErr.CodeInternal, "persist "+family.Label()+" failed")
}

func activityError(err error) error {
	if _, ok := appErr.As(err); ok {
		return err
	}
	return appErr.Wrap(err, appErr.CodeInternal, "record activity failed")
}

// resolveUpstream returns the explicitly requested snapshot or the latest of the family.
func resolveUpstream[T any](ctx context.Context, repo repository.SnapshotRepository[T], projectID uuid.UUID, explicit *uuid.UUID, projectOf func(*T) uuid.UUID) (*T, error) {
	family := repo.Family()
	if explicit != nil {
		s, err := repo.GetByID(ctx, *explicit)
		if err != nil {
			return nil, err
		}
		if projectOf(s) != projectID {
			return nil, appErr.New(appErr.CodeNotFound, family.Label()+" not found")
		}
		return s, nil
	}
	s, err := repo.Latest(ctx, projectID)
	if appErr.IsCode(err, appErr.CodeNotFound) {
		return nil, missingPrerequisite(family)
	}
	return s, err
}

func missingPrerequisite(family models.ArtifactFamily) error {
	return appErr.Newf(appErr.CodeBadRequest, "No %s found. Generate %s first.", family.Label(), family.Plural()).
		WithMeta("missing", string(family))
}

// snapshotReader implements the read operations shared by every family.
type snapshotReader[T any] struct {
	projects  repository.ProjectRepository
	access    AccessResolver
	repo      repository.SnapshotRepository[T]
	projectOf func(*T) uuid.UUID
}

func (r snapshotReader[T]) List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[T], error) {
	if _, err := loadProject(ctx, r.projects, r.access, projectID, caller); err != nil {
		return pagination.Page[T]{}, err
	}
	return r.repo.ListByProject(ctx, projectID, p)
}

func (r snapshotReader[T]) Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*T, error) {
	if _, err := loadProject(ctx, r.projects, r.access, projectID, caller); err != nil {
		return nil, err
	}
	s, err := r.repo.Latest(ctx, projectID)
	if appErr.IsCode(err, appErr.CodeNotFound) {
		family := r.repo.Family()
		return nil, appErr.Newf(appErr.CodeNotFound, "No %s found. Generate %s first.", family.Label(), family.Plural())
	}
	return s, err
}

// Get checks project and snapshot existence before access.
func (r snapshotReader[T]) Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*T, error) {
	project, s, err := r.load(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := r.access.Require(ctx, project, caller); err != nil {
		return nil, err
	}
	return s, nil
}

func (r snapshotReader[T]) load(ctx context.Context, projectID, id uuid.UUID) (*models.Project, *T, error) {
	var project models.Project
	if err := r.projects.GetByID(ctx, projectID, &project); err != nil {
		return nil, nil, err
	}
	s, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if r.projectOf(s) != projectID {
		return nil, nil, appErr.New(appErr.CodeNotFound, r.repo.Family().Label()+" not found")
	}
	return &project, s, nil
}
