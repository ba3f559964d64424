package repository

import (
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository reads the approval state written by the review
// workflow. BulkCreate exists for seeding.
type ApplicationRepository interface {
	BulkCreate(applications []model.Application) error
	FindByID(id uint) (*model.Application, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) BulkCreate(applications []model.Application) error {
	if len(applications) == 0 {
		return nil
	}
	if err := r.db.Omit(clause.Associations).CreateInBatches(applications, 100).Error; err != nil {
		logger.Error("Failed to bulk create applications", err, map[string]interface{}{
			"count": len(applications),
		})
		return err
	}
	return nil
}

func (r *applicationRepository) FindByID(id uint) (*model.Application, error) {
	var application model.Application
	if err := r.db.First(&application, id).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to find application by ID", err, map[string]interface{}{
				"application_id": id,
			})
		}
		return nil, err
	}
	return &application, nil
}
