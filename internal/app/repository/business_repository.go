package repository

import (
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessRepository interface {
	BulkCreate(businesses []model.Business) error
	FindByID(id uint) (*model.Business, error)
	LockByID(id uint) (*model.Business, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) BulkCreate(businesses []model.Business) error {
	if len(businesses) == 0 {
		return nil
	}
	if err := r.db.Omit(clause.Associations).CreateInBatches(businesses, 100).Error; err != nil {
		logger.Error("Failed to bulk create businesses", err, map[string]interface{}{
			"count": len(businesses),
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindByID(id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.First(&business, id).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to find business by ID", err, map[string]interface{}{
				"business_id": id,
			})
		}
		return nil, err
	}
	return &business, nil
}

// LockByID reads the business with a row lock held until the surrounding
// transaction ends. SQLite ignores the locking clause.
func (r *businessRepository) LockByID(id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&business, id).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to lock business", err, map[string]interface{}{
				"business_id": id,
			})
		}
		return nil, err
	}
	return &business, nil
}
