package controllers

import (
	"strconv"

	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

// PropertyController serves property listings
type PropertyController struct {
	properties *services.PropertyService
}

// NewPropertyController creates a PropertyController
func NewPropertyController(properties *services.PropertyService) *PropertyController {
	return &PropertyController{properties: properties}
}

// ListProperties returns a page of properties
func (pc *PropertyController) ListProperties(c *gin.Context) {
	pagination := utils.NewPagination(c)
	filter := repository.PropertyFilter{
		City:         c.Query("city"),
		PropertyType: c.Query("property_type"),
		Status:       c.Query("status"),
		Limit:        pagination.Limit,
		Offset:       pagination.Offset,
	}

	var err error
	if filter.MinPrice, err = floatQuery(c, "min_price"); err != nil {
		utils.BadRequest(c, "min_price must be a number", nil)
		return
	}
	if filter.MaxPrice, err = floatQuery(c, "max_price"); err != nil {
		utils.BadRequest(c, "max_price must be a number", nil)
		return
	}

	page, err := pc.properties.ListProperties(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list properties")
		return
	}
	utils.SuccessWithPagination(c, "Properties retrieved", page.Properties, page.Total, pagination)
}

// GetProperty returns a single property
func (pc *PropertyController) GetProperty(c *gin.Context) {
	property, err := pc.properties.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get property")
		return
	}
	utils.Success(c, "Property retrieved", property)
}

// CreateProperty adds a listing
func (pc *PropertyController) CreateProperty(c *gin.Context) {
	var req services.PropertyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	property, err := pc.properties.CreateProperty(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create property")
		return
	}
	utils.Created(c, "Property created", property)
}

// UpdateProperty changes the supplied fields of a listing
func (pc *PropertyController) UpdateProperty(c *gin.Context) {
	var req services.PropertyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	property, err := pc.properties.UpdateProperty(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "Failed to update property")
		return
	}
	utils.Success(c, "Property updated", property)
}

// DeleteProperty removes a listing
func (pc *PropertyController) DeleteProperty(c *gin.Context) {
	if err := pc.properties.DeleteProperty(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete property")
		return
	}
	utils.Success(c, "Property deleted", nil)
}

func floatQuery(c *gin.Context, key string) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
