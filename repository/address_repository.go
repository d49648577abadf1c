package repository

import (
	"context"

	"food-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressRepository manages a user's address book.
type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	SetDefault(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type GormAddressRepository struct {
	db *gorm.DB
}

func NewGormAddressRepository(db *gorm.DB) AddressRepository {
	return &GormAddressRepository{db: db}
}

// lockUserAddresses takes row locks on every address of the user so that
// default changes for the same user are serialized.
func lockUserAddresses(tx *gorm.DB, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Create inserts the address. When it is the new default, the previous
// default is cleared in the same transaction.
func (r *GormAddressRepository) Create(ctx context.Context, address *models.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if _, err := lockUserAddresses(tx, address.UserID); err != nil {
				return err
			}
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", address.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

func (r *GormAddressRepository) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&address).Error; err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (r *GormAddressRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses := []models.Address{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// SetDefault flips the default flag for all of the user's addresses with a
// single UPDATE, so at no point can two rows be marked default.
func (r *GormAddressRepository) SetDefault(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var target *models.Address
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockUserAddresses(tx, userID)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID == id {
				target = &rows[i]
				break
			}
		}
		if target == nil {
			return ErrNotFound
		}
		return tx.Model(&models.Address{}).
			Where("user_id = ?", userID).
			Update("is_default", gorm.Expr("(id = ?)", id)).Error
	})
	if err != nil {
		return nil, err
	}
	target.IsDefault = true
	return target, nil
}

func (r *GormAddressRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
