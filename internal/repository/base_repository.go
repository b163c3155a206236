package repository

import (
	"context"
	"errors"
	"fmt"

	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/gorm"
)

// BaseRepository defines common CRUD operations.
type BaseRepository[T any] interface {
	Create(ctx context.Context, obj *T) error
	GetByID(ctx context.Context, id any, dest *T) error
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, id any) error
}

type baseRepository[T any] struct {
	db    *gorm.DB
	label string
}

// NewBaseRepository returns CRUD helpers for T. label names the entity in error messages.
func NewBaseRepository[T any](db *gorm.DB, label string) BaseRepository[T] {
	return &baseRepository[T]{db: db, label: label}
}

func (r *baseRepository[T]) Create(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Create(obj).Error; err != nil {
		return writeError(err, "create "+r.label+" failed")
	}
	return nil
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id any, dest *T) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return readError(err, r.label)
	}
	return nil
}

func (r *baseRepository[T]) Update(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Save(obj).Error; err != nil {
		return writeError(err, "update "+r.label+" failed")
	}
	return nil
}

func (r *baseRepository[T]) Delete(ctx context.Context, id any) error {
	var t T
	res := r.db.WithContext(ctx).Delete(&t, "id = ?", id)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete "+r.label+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, fmt.Sprintf("%s %v not found", r.label, id))
	}
	return nil
}

// readError maps a lookup failure onto not_found or internal.
func readError(err error, label string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr.New(appErr.CodeNotFound, label+" not found")
	}
	return appErr.Wrap(err, appErr.CodeInternal, "get "+label+" failed")
}

// writeError maps unique violations onto conflict.
func writeError(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return appErr.Wrap(err, appErr.CodeConflict, msg)
	}
	return appErr.Wrap(err, appErr.CodeInternal, msg)
}

// paginate counts q and loads one page of it. scopes apply to the page query only.
func paginate[T any](q *gorm.DB, p pagination.Params, order string, scopes ...func(*gorm.DB) *gorm.DB) (pagination.Page[T], error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return pagination.Page[T]{}, err
	}
	var out []T
	if err := q.Scopes(scopes...).Order(order).Offset(p.Offset()).Limit(p.Limit).Find(&out).Error; err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.NewPage(out, p, total), nil
}
