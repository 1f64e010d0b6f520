package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"tokoadmin/internal/forms"
	"tokoadmin/internal/images"
	"tokoadmin/internal/middleware"
	"tokoadmin/internal/services"
	"tokoadmin/internal/validation"
)

// ProductsPath is where a successful submit sends the client.
const ProductsPath = "/api/v1/products"

// DraftHandler exposes create and edit forms over HTTP.
type DraftHandler struct {
	drafts *services.DraftService
	logger *slog.Logger
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(drafts *services.DraftService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

// RegisterRoutes registers the draft routes.
func (h *DraftHandler) RegisterRoutes(router fiber.Router) {
	draftRoutes := router.Group("/drafts")
	draftRoutes.Post("/", h.HandleOpen)
	draftRoutes.Get("/:id", h.HandleGet)
	draftRoutes.Patch("/:id", h.HandlePatch)
	draftRoutes.Delete("/:id", h.HandleDiscard)

	draftRoutes.Post("/:id/colors", h.HandleCommitColors)
	draftRoutes.Patch("/:id/colors/edit", h.HandleSetColorEdit)
	draftRoutes.Delete("/:id/colors/:value", h.HandleRemoveColor)
	draftRoutes.Post("/:id/colors/:index/edit", h.HandleBeginColorEdit)
	draftRoutes.Post("/:id/colors/:index/commit", h.HandleCommitColorEdit)

	draftRoutes.Put("/:id/image", h.HandleAttachImage)
	draftRoutes.Delete("/:id/image", h.HandleRemoveImage)

	draftRoutes.Post("/:id/submit", h.HandleSubmit)
}

// DraftResponse is a draft's id together with its form state.
type DraftResponse struct {
	ID string `json:"id"`
	forms.State
}

func newDraftResponse(d *services.Draft) DraftResponse {
	return DraftResponse{ID: d.ID, State: d.Form.State()}
}

// OpenDraftRequest selects the product to edit. An empty body opens a create draft.
type OpenDraftRequest struct {
	ProductID string `json:"product_id"`
}

// priceText accepts a JSON string or number.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = priceText(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return err
	}
	*p = priceText(n.String())
	return nil
}

// PatchDraftRequest sets any subset of the draft's text fields.
type PatchDraftRequest struct {
	Name        *string    `json:"name"`
	Price       *priceText `json:"price"`
	Description *string    `json:"description"`
	ColorInput  *string    `json:"color_input"`
}

// TextRequest carries one piece of typed text.
type TextRequest struct {
	Input string `json:"input"`
}

func (h *DraftHandler) draft(c *fiber.Ctx) (*services.Draft, error) {
	return h.drafts.Get(c.Params("id"))
}

// HandleOpen opens a create draft, or an edit draft for product_id.
func (h *DraftHandler) HandleOpen(c *fiber.Ctx) error {
	var req OpenDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	d := h.drafts.Open(req.ProductID, middleware.Operator(c))
	status := fiber.StatusCreated
	if d.Form.State().Status == forms.StatusLoading {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(newDraftResponse(d))
}

// HandleGet returns the draft state.
func (h *DraftHandler) HandleGet(c *fiber.Ctx) error {
	d, err := h.draft(c)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not retrieve draft")
	}
	return c.JSON(newDraftResponse(d))
}

// HandlePatch applies field edits and answers with the re-validated state.
func (h *DraftHandler) HandlePatch(c *fiber.Ctx) error {
	d, err := h.draft(c)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not update draft")
	}

	var req PatchDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	setters := []struct {
		value *string
		set   func(string) (validation.Violations, error)
	}{
		{req.Name, d.Form.SetName},
		{(*string)(req.Price), d.Form.SetPrice},
		{req.Description, d.Form.SetDescription},
	}
	for _, s := range setters {
		if s.value == nil {
			continue
		}
		if _, err := s.set(*s.value); err != nil {
			return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not update draft")
		}
	}
	if req.ColorInput != nil {
		if err := d.Form.SetColorInput(*req.ColorInput); err != nil {
			return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not update draft")
		}
	}
	return c.JSON(newDraftResponse(d))
}

// HandleDiscard closes a draft.
func (h *DraftHandler) HandleDiscard(c *fiber.Ctx) error {
	if err := h.drafts.Discard(c.Params("id")); err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not discard draft")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// mutate runs op on the addressed draft and answers with its state.
func (h *DraftHandler) mutate(c *fiber.Ctx, op func(f *forms.Form) error) error {
	d, err := h.draft(c)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not update draft")
	}
	if err := op(d.Form); err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not update draft")
	}
	return c.JSON(newDraftResponse(d))
}

func (h *DraftHandler) parseText(c *fiber.Ctx) (TextRequest, error) {
	var req TextRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := c.BodyParser(&req)
	return req, err
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func tagIndex(c *fiber.Ctx) (int, error) {
	return strconv.Atoi(c.Params("index"))
}

// HandleCommitColors commits {"input"} as colors, or the pending input when empty.
func (h *DraftHandler) HandleCommitColors(c *fiber.Ctx) error {
	req, err := h.parseText(c)
	if err != nil {
		return badBody(c, err)
	}
	return h.mutate(c, func(f *forms.Form) error {
		if req.Input == "" {
			return f.CommitPendingColors()
		}
		return f.CommitColorInput(req.Input)
	})
}

// HandleRemoveColor removes the color named in the path.
func (h *DraftHandler) HandleRemoveColor(c *fiber.Ctx) error {
	value, err := url.PathUnescape(c.Params("value"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid color",
			"error":   err.Error(),
		})
	}
	return h.mutate(c, func(f *forms.Form) error { return f.RemoveColor(value) })
}

// HandleBeginColorEdit enters edit mode for the color at :index.
func (h *DraftHandler) HandleBeginColorEdit(c *fiber.Ctx) error {
	index, err := tagIndex(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid color index"})
	}
	return h.mutate(c, func(f *forms.Form) error { return f.BeginColorEdit(index) })
}

// HandleSetColorEdit records the working text of the color being edited.
func (h *DraftHandler) HandleSetColorEdit(c *fiber.Ctx) error {
	req, err := h.parseText(c)
	if err != nil {
		return badBody(c, err)
	}
	return h.mutate(c, func(f *forms.Form) error { return f.SetColorEditValue(req.Input) })
}

// HandleCommitColorEdit applies the working text to the color at :index.
func (h *DraftHandler) HandleCommitColorEdit(c *fiber.Ctx) error {
	index, err := tagIndex(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid color index"})
	}
	return h.mutate(c, func(f *forms.Form) error { return f.CommitColorEdit(index) })
}

// HandleAttachImage reads the multipart "image" field into the draft.
func (h *DraftHandler) HandleAttachImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Multipart field 'image' is required",
			"error":   err.Error(),
		})
	}
	return h.mutate(c, func(f *forms.Form) error {
		return f.AttachImage(c.UserContext(), images.FromMultipart(fh))
	})
}

// HandleRemoveImage clears the draft image.
func (h *DraftHandler) HandleRemoveImage(c *fiber.Ctx) error {
	return h.mutate(c, func(f *forms.Form) error { return f.RemoveImage() })
}

// HandleSubmit validates and saves the draft. Success redirects to the
// product list with 303 See Other.
func (h *DraftHandler) HandleSubmit(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.drafts.Submit(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusBadGateway, "Could not save product")
	}

	h.logger.Info("product saved",
		slog.String("draft_id", id),
		slog.String("product_id", product.ID),
		slog.String("operator", middleware.Operator(c)),
	)
	c.Location(ProductsPath)
	return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
		"message": "Product saved successfully",
		"product": product,
	})
}
