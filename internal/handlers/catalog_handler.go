package handlers

import (
	"brickshelf/internal/models"
	"brickshelf/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// CatalogHandler handles HTTP requests for sets and themes.
type CatalogHandler struct {
	service *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	setRoutes := router.Group("/sets")
	setRoutes.Get("/", h.HandleGetSets)
	setRoutes.Get("/:setNum", h.HandleGetSet)
	setRoutes.Post("/", h.HandleCreateSet)
	setRoutes.Patch("/:setNum", h.HandleUpdateSet)
	setRoutes.Delete("/:setNum", h.HandleDeleteSet)

	router.Get("/themes", h.HandleGetThemes)
}

// setResponse flattens a set and its theme for clients.
type setResponse struct {
	SetNum    string `json:"set_num"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	NumParts  int    `json:"num_parts"`
	ThemeID   int    `json:"theme_id"`
	ThemeName string `json:"theme_name,omitempty"`
	ImgURL    string `json:"img_url,omitempty"`
}

func toSetResponse(s models.Set) setResponse {
	resp := setResponse{
		SetNum:   s.SetNum,
		Name:     s.Name,
		Year:     s.Year,
		NumParts: s.NumParts,
		ThemeID:  s.ThemeID,
		ImgURL:   s.ImgURL,
	}
	if s.Theme != nil {
		resp.ThemeName = s.Theme.Name
	}
	return resp
}

// HandleGetSets lists every set, or only those whose theme name contains
// the ?theme= query value.
func (h *CatalogHandler) HandleGetSets(c *fiber.Ctx) error {
	var (
		sets []models.Set
		err  error
	)
	if theme := c.Query("theme"); theme != "" {
		sets, err = h.service.GetSetsByTheme(c.UserContext(), theme)
	} else {
		sets, err = h.service.GetAllSets(c.UserContext())
	}
	if err != nil {
		return respondError(c, "Could not retrieve sets", err)
	}

	return c.JSON(lo.Map(sets, func(s models.Set, _ int) setResponse {
		return toSetResponse(s)
	}))
}

// HandleGetSet retrieves a single set by its set number.
func (h *CatalogHandler) HandleGetSet(c *fiber.Ctx) error {
	set, err := h.service.GetSetByNum(c.UserContext(), c.Params("setNum"))
	if err != nil {
		return respondError(c, "Could not retrieve set", err)
	}
	return c.JSON(toSetResponse(*set))
}

// HandleCreateSet adds a set to the catalog.
func (h *CatalogHandler) HandleCreateSet(c *fiber.Ctx) error {
	var set models.Set
	if err := c.BodyParser(&set); err != nil {
		return badBody(c, err)
	}
	set.Theme = nil

	if err := h.service.AddSet(c.UserContext(), &set); err != nil {
		return respondError(c, "Could not create set", err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSetResponse(set))
}

// HandleUpdateSet applies a partial update and returns the stored set.
func (h *CatalogHandler) HandleUpdateSet(c *fiber.Ctx) error {
	setNum := c.Params("setNum")

	var patch models.SetPatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c, err)
	}

	if err := h.service.EditSet(c.UserContext(), setNum, patch); err != nil {
		return respondError(c, "Could not update set", err)
	}

	set, err := h.service.GetSetByNum(c.UserContext(), setNum)
	if err != nil {
		return respondError(c, "Could not retrieve set", err)
	}
	return c.JSON(toSetResponse(*set))
}

// HandleDeleteSet removes a set.
func (h *CatalogHandler) HandleDeleteSet(c *fiber.Ctx) error {
	if err := h.service.DeleteSet(c.UserContext(), c.Params("setNum")); err != nil {
		return respondError(c, "Could not delete set", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetThemes lists every theme.
func (h *CatalogHandler) HandleGetThemes(c *fiber.Ctx) error {
	themes, err := h.service.GetAllThemes(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve themes", err)
	}
	return c.JSON(themes)
}
