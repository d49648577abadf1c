package repository

import (
	"context"

	"food-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository is the read side of the restaurant/menu catalog.
type CatalogRepository interface {
	FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	IsRestaurantOwnedBy(ctx context.Context, restaurantID, ownerID uuid.UUID) (bool, error)
}

// GormCatalogRepository reads the catalog tables shared with the restaurant service.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *GormCatalogRepository) FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (r *GormCatalogRepository) IsRestaurantOwnedBy(ctx context.Context, restaurantID, ownerID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", restaurantID, ownerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
