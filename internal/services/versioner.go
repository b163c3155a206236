package services

import (
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"gorm.io/gorm"
)

// Versioner allocates snapshot versions. tx must be the transaction that inserts
// the snapshot consuming the version.
type Versioner interface {
	NextVersion(tx *gorm.DB, projectID uuid.UUID, family models.ArtifactFamily) (int, error)
}

type versioner struct{}

func NewVersioner() Versioner { return versioner{} }

func (versioner) NextVersion(tx *gorm.DB, projectID uuid.UUID, family models.ArtifactFamily) (int, error) {
	table := family.Table()
	if table == nil {
		return 0, appErr.Newf(appErr.CodeInternal, "unknown artifact family %q", family)
	}
	var maxVersion int
	if err := tx.Model(table).Where("project_id = ?", projectID).Select("COALESCE(MAX(version),0)").Scan(&maxVersion).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "compute "+family.Label()+" version failed")
	}
	return maxVersion + 1, nil
}
