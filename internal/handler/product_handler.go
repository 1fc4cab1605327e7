package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/service"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	svc service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// ProductRequest represents a create/update product payload.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Category    string          `json:"category"`
}

func (r *ProductRequest) toInput() (service.ProductInput, error) {
	if r.Price.IsNegative() || r.Price.IsZero() {
		return service.ProductInput{}, apperr.InvalidInput("price must be greater than zero")
	}
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Category:    r.Category,
	}, nil
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		return apperr.Unauthenticated("no token found")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("name, price, and quantity are required")
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	product, err := h.svc.Create(c.Request().Context(), input, ident.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": product})
}

// List godoc
// @Summary List products with pagination
// @Tags products
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Items per page (default 10)"
// @Success 200 {object} map[string]interface{}
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.svc.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   result.Count,
		"total":   result.Total,
		"page":    result.Page,
		"pages":   result.Pages,
		"data":    result.Items,
	})
}

// GetByID godoc
// @Summary Get a product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}

	product, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": product})
}

// Update godoc
// @Summary Update a product (owner or admin)
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Product payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		return apperr.Unauthenticated("no token found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("name, price, and quantity are required")
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	product, err := h.svc.Update(c.Request().Context(), id, input, ident.UserID, ident.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": product})
}

// Delete godoc
// @Summary Delete a product (owner or admin)
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		return apperr.Unauthenticated("no token found")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}

	if err := h.svc.Delete(c.Request().Context(), id, ident.UserID, ident.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "product deleted successfully"})
}
