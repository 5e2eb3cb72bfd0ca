package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Govind-619/PropertyHub/cache"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/google/uuid"
)

// PropertyService serves property listings through the cache
type PropertyService struct {
	repo  repository.PropertyRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(repo repository.PropertyRepository, c cache.Cache, ttl time.Duration) *PropertyService {
	if c == nil {
		c = cache.NewNop()
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &PropertyService{repo: repo, cache: c, ttl: ttl}
}

// PropertyInput is the body of a property create request
type PropertyInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	City         string  `json:"city"`
	PropertyType string  `json:"property_type"`
	Status       string  `json:"status"`
	Price        float64 `json:"price"`
	Bedrooms     int     `json:"bedrooms"`
}

// PropertyUpdate is the body of a property update request. Nil fields are left unchanged.
type PropertyUpdate struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	City         *string  `json:"city"`
	PropertyType *string  `json:"property_type"`
	Status       *string  `json:"status"`
	Price        *float64 `json:"price"`
	Bedrooms     *int     `json:"bedrooms"`
}

// PropertyPage is one page of a property listing
type PropertyPage struct {
	Properties []models.Property `json:"properties"`
	Total      int64             `json:"total"`
}

var propertyStatuses = map[string]bool{
	models.PropertyStatusAvailable: true,
	models.PropertyStatusBooked:    true,
	models.PropertyStatusInactive:  true,
}

// ListProperties returns the properties matching filter
func (s *PropertyService) ListProperties(ctx context.Context, filter repository.PropertyFilter) (*PropertyPage, error) {
	key := cache.Key(cache.PrefixProperties, filter)
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func() (*PropertyPage, error) {
		properties, total, err := s.repo.ListProperties(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		return &PropertyPage{Properties: properties, Total: total}, nil
	})
}

// GetProperty returns a property by ID
func (s *PropertyService) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	key := cache.Key(cache.PrefixProperties, map[string]string{"id": id})
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func() (*models.Property, error) {
		p, err := s.repo.GetProperty(ctx, id)
		if err != nil {
			return nil, propertyLookupErr(err)
		}
		return p, nil
	})
}

// CreateProperty validates and stores a new property
func (s *PropertyService) CreateProperty(ctx context.Context, in PropertyInput) (*models.Property, error) {
	property := &models.Property{
		ID:           uuid.NewString(),
		Title:        utils.SanitizeString(in.Title),
		Description:  utils.SanitizeString(in.Description),
		City:         utils.Title(in.City),
		PropertyType: in.PropertyType,
		Status:       strings.ToUpper(in.Status),
		Price:        in.Price,
		Bedrooms:     in.Bedrooms,
	}
	if property.Status == "" {
		property.Status = models.PropertyStatusAvailable
	}
	if err := validateProperty(property); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.invalidate(ctx)
	utils.LogInfo("Property %s created in %s", property.ID, property.City)
	return property, nil
}

// UpdateProperty applies the non-nil fields of in
func (s *PropertyService) UpdateProperty(ctx context.Context, id string, in PropertyUpdate) (*models.Property, error) {
	property, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, propertyLookupErr(err)
	}

	if in.Title != nil {
		property.Title = utils.SanitizeString(*in.Title)
	}
	if in.Description != nil {
		property.Description = utils.SanitizeString(*in.Description)
	}
	if in.City != nil {
		property.City = utils.Title(*in.City)
	}
	if in.PropertyType != nil {
		property.PropertyType = *in.PropertyType
	}
	if in.Status != nil {
		property.Status = strings.ToUpper(*in.Status)
	}
	if in.Price != nil {
		property.Price = *in.Price
	}
	if in.Bedrooms != nil {
		property.Bedrooms = *in.Bedrooms
	}
	if err := validateProperty(property); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	s.invalidate(ctx)
	utils.LogInfo("Property %s updated", property.ID)
	return property, nil
}

// DeleteProperty soft deletes a property
func (s *PropertyService) DeleteProperty(ctx context.Context, id string) error {
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return propertyLookupErr(err)
	}
	s.invalidate(ctx)
	utils.LogInfo("Property %s deleted", id)
	return nil
}

func (s *PropertyService) invalidate(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cache.PrefixProperties)
}

func validateProperty(p *models.Property) error {
	if p.Title != "" {
		if err := utils.ValidateStringLength(p.Title, 1, 200); err != nil {
			return fmt.Errorf("%w: title %v", ErrInvalidProperty, err)
		}
	}
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidProperty)
	case p.City == "":
		return fmt.Errorf("%w: city is required", ErrInvalidProperty)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProperty)
	case p.Bedrooms < 0:
		return fmt.Errorf("%w: bedrooms cannot be negative", ErrInvalidProperty)
	case !propertyStatuses[p.Status]:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProperty, p.Status)
	}
	return nil
}

func propertyLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPropertyNotFound
	}
	return fmt.Errorf("get property: %w", err)
}
