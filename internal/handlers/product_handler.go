package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tokoadmin/internal/middleware"
	"tokoadmin/internal/models"
	"tokoadmin/internal/services"
)

// ProductHandler serves the product list, detail view and delete.
type ProductHandler struct {
	service *services.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleSearch)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// searchQuery reads ?name= and ?sort=asc|desc.
func searchQuery(c *fiber.Ctx) (models.SearchQuery, error) {
	sort, err := models.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return models.SearchQuery{}, err
	}
	return models.SearchQuery{Name: c.Query("name"), Sort: sort}, nil
}

func invalidSort(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid sort order",
		"error":   err.Error(),
	})
}

// HandleSearch lists products filtered by ?name= and sorted by ?sort=asc|desc.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	query, err := searchQuery(c)
	if err != nil {
		return invalidSort(c, err)
	}

	products, err := h.service.Search(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusBadGateway, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProduct returns the detail view of one product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusBadGateway, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product once ?confirm=true is given and
// answers with the list re-fetched for the caller's ?name= and ?sort=.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	query, err := searchQuery(c)
	if err != nil {
		return invalidSort(c, err)
	}
	products, err := h.service.Delete(c.UserContext(), id, c.QueryBool("confirm"), middleware.Operator(c), query)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusBadGateway, "Could not delete product")
	}

	h.logger.Info("product deleted", slog.String("product_id", id), slog.String("operator", middleware.Operator(c)))
	return c.JSON(fiber.Map{
		"message":  "Product deleted successfully",
		"products": products,
	})
}
