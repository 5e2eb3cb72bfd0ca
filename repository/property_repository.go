package repository

import (
	"context"

	"github.com/Govind-619/PropertyHub/models"
)

// CreateProperty inserts a property row
func (s *Store) CreateProperty(ctx context.Context, p *models.Property) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// GetProperty retrieves a property by ID
func (s *Store) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &property, nil
}

// UpdateProperty writes every column of p
func (s *Store) UpdateProperty(ctx context.Context, p *models.Property) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// DeleteProperty soft deletes a property
func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProperties returns the page of properties matching filter and the total match count
func (s *Store) ListProperties(ctx context.Context, filter PropertyFilter) ([]models.Property, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Property{})
	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.PropertyType != "" {
		query = query.Where("property_type = ?", filter.PropertyType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinPrice > 0 {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price <= ?", filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	query = query.Order("created_at DESC").Order("id")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}
