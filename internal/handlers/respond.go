package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tokoadmin/internal/forms"
	"tokoadmin/internal/images"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/services"
	"tokoadmin/pkg/httpclient"
)

// respondError maps a service error to an HTTP status and JSON body. Errors
// it does not recognise are answered with fallbackStatus and fallbackMsg.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error, fallbackStatus int, fallbackMsg string) error {
	var (
		submitErr  *forms.SubmitError
		confirmErr *services.ConfirmationRequired
		statusErr  *httpclient.StatusError
	)

	switch {
	case errors.As(err, &submitErr):
		if submitErr.Kind == forms.ValidationFailure {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message":    submitErr.Message,
				"errors":     submitErr.Violations.Fields(),
				"violations": submitErr.Violations,
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": submitErr.Message,
		})
	case errors.As(err, &confirmErr):
		return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
			"message":    confirmErr.Prompt,
			"product_id": confirmErr.ProductID,
		})
	case errors.Is(err, images.ErrFileTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"message": "Image file is too large",
			"error":   err.Error(),
		})
	case errors.Is(err, images.ErrNotAnImage):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"message": "File is not an image",
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	case errors.Is(err, services.ErrDraftNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Draft not found",
		})
	case errors.Is(err, repositories.ErrActivityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Activity entry not found",
		})
	case errors.Is(err, forms.ErrLoading):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Product is still loading",
		})
	case errors.Is(err, forms.ErrLoadFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Product could not be loaded",
			"error":   err.Error(),
		})
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Inventory backend unavailable",
		})
	case errors.As(err, &statusErr):
		msg := statusErr.Message()
		if msg == "" {
			msg = fallbackMsg
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": msg,
		})
	}

	logger.Error(fallbackMsg, slog.String("path", c.Path()), slog.String("error", err.Error()))
	return c.Status(fallbackStatus).JSON(fiber.Map{
		"message": fallbackMsg,
		"error":   err.Error(),
	})
}
