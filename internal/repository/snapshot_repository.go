package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/gorm"
)

// SnapshotRepository reads one versioned artifact family. Children are loaded in
// their stored order.
type SnapshotRepository[T any] interface {
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Latest(ctx context.Context, projectID uuid.UUID) (*T, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[T], error)
	Count(ctx context.Context, projectID uuid.UUID) (int64, error)
	Family() models.ArtifactFamily
}

type snapshotRepository[T any] struct {
	db       *gorm.DB
	family   models.ArtifactFamily
	children string
	order    string
}

func newSnapshotRepository[T any](db *gorm.DB, family models.ArtifactFamily, children, order string) SnapshotRepository[T] {
	return &snapshotRepository[T]{db: db, family: family, children: children, order: order}
}

func NewRequirementRepository(db *gorm.DB) SnapshotRepository[models.RequirementSnapshot] {
	return newSnapshotRepository[models.RequirementSnapshot](db, models.FamilyRequirement, "Features", "order_index ASC")
}

func NewEstimateRepository(db *gorm.DB) SnapshotRepository[models.EstimateSnapshot] {
	return newSnapshotRepository[models.EstimateSnapshot](db, models.FamilyEstimate, "LineItems", "sort_order ASC")
}

func NewTechStackRepository(db *gorm.DB) SnapshotRepository[models.TechStackRecommendation] {
	return newSnapshotRepository[models.TechStackRecommendation](db, models.FamilyTechStack, "", "")
}

func NewUserFlowRepository(db *gorm.DB) SnapshotRepository[models.UserFlowSnapshot] {
	return newSnapshotRepository[models.UserFlowSnapshot](db, models.FamilyUserFlow, "Flows", "order_index ASC")
}

func NewWireframeRepository(db *gorm.DB) SnapshotRepository[models.WireframeSnapshot] {
	return newSnapshotRepository[models.WireframeSnapshot](db, models.FamilyWireframe, "Screens", "order_index ASC")
}

func (r *snapshotRepository[T]) Family() models.ArtifactFamily { return r.family }

func (r *snapshotRepository[T]) withChildren(q *gorm.DB) *gorm.DB {
	if r.children == "" {
		return q
	}
	order := r.order
	return q.Preload(r.children, func(db *gorm.DB) *gorm.DB { return db.Order(order) })
}

func (r *snapshotRepository[T]) query(ctx context.Context) *gorm.DB {
	return r.withChildren(r.db.WithContext(ctx))
}

func (r *snapshotRepository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var out T
	if err := r.query(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, readError(err, r.family.Label())
	}
	return &out, nil
}

func (r *snapshotRepository[T]) Latest(ctx context.Context, projectID uuid.UUID) (*T, error) {
	var out T
	if err := r.query(ctx).Where("project_id = ?", projectID).Order("version DESC").First(&out).Error; err != nil {
		return nil, readError(err, r.family.Label())
	}
	return &out, nil
}

func (r *snapshotRepository[T]) ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[T], error) {
	q := r.db.WithContext(ctx).Model(new(T)).Where("project_id = ?", projectID)
	page, err := paginate[T](q, p, "version DESC", r.withChildren)
	if err != nil {
		return page, appErr.Wrap(err, appErr.CodeInternal, "list "+r.family.Label()+"s failed")
	}
	return page, nil
}

func (r *snapshotRepository[T]) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count "+r.family.Label()+"s failed")
	}
	return n, nil
}
