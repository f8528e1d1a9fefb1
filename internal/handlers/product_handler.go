package handlers

import (
	"fmt"
	"log/slog"

	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=1000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	SKU         string  `json:"sku" validate:"max=100"`
	Category    string  `json:"category" validate:"max=100"`
}

// UpdateProductRequest is the body of PUT /products/:id. Quantity carries no
// range rule; negative stock is only rejected by the quantity endpoint.
type UpdateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=1000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity"`
	SKU         string  `json:"sku" validate:"max=100"`
	Category    string  `json:"category" validate:"max=100"`
}

// UpdateQuantityRequest is the body of PATCH /products/:id/quantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "product_handler"),
	}
}

// RegisterRoutes registers the product routes. Reads are public; writes go
// through the protect middlewares.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, protect ...fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Get("/:id", h.HandleGetProductByID)

	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, protect...), handler)
	}
	products.Post("/", write(h.HandleCreateProduct)...)
	products.Put("/:id", write(h.HandleUpdateProduct)...)
	products.Patch("/:id/quantity", write(h.HandleUpdateQuantity)...)
	products.Delete("/:id", write(h.HandleDeleteProduct)...)
}

// HandleGetProducts lists products. ?name= searches by name fragment and
// ?category= filters by exact category; the two are mutually exclusive.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	args := c.Context().QueryArgs()
	hasName, hasCategory := args.Has("name"), args.Has("category")

	var (
		products []models.Product
		err      error
	)
	switch {
	case hasName && hasCategory:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameters 'name' and 'category' cannot be combined",
		})
	case hasName:
		products, err = h.service.SearchProductsByName(c.UserContext(), c.Query("name"))
	case hasCategory:
		products, err = h.service.GetProductsByCategory(c.UserContext(), c.Query("category"))
	default:
		products, err = h.service.GetAllProducts(c.UserContext())
	}
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "Error listing products", "error", err)
		return respondError(c, "Could not retrieve products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "Error getting product", "id", id, "error", err)
		return respondError(c, "Could not retrieve product", err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", id),
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondInvalid(c, err)
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    req.Category,
	}
	product.SetSKU(req.SKU)

	created, err := h.service.CreateProduct(c.UserContext(), product)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateProduct replaces the mutable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondInvalid(c, err)
	}

	details := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    req.Category,
	}
	details.SetSKU(req.SKU)

	updated, err := h.service.UpdateProduct(c.UserContext(), id, details)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.JSON(updated)
}

// HandleUpdateQuantity sets the stock quantity of a product.
func (h *ProductHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	id := c.Params("id")
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondInvalid(c, err)
	}

	updated, err := h.service.UpdateProductQuantity(c.UserContext(), id, *req.Quantity)
	if err != nil {
		return respondError(c, "Could not update product quantity", err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", id),
	})
}
