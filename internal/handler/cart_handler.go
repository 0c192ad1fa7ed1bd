package handler

import (
	"net/http"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ItemKind string `json:"item_kind" validate:"required"`
	ItemID   int64  `json:"item_id" validate:"gt=0"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

// /cart, /cart/{kind}/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(jwtSecret))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:kind/:id", h.patchItem)
	g.DELETE("/:kind/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req AddCartRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	kind, err := model.ParseItemKind(req.ItemKind)
	if err != nil {
		return badRequest(c, "invalid item_kind")
	}

	out, err := h.uc.AddToCart(c.Request().Context(), actor.UserID, usecase.AddCartInput{
		Item:     model.ItemRef{Kind: kind, ID: req.ItemID},
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	ref, ok := parseItemRef(c)
	if !ok {
		return badRequest(c, "invalid item")
	}

	var req UpdateCartItemRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), actor.UserID, ref, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	ref, ok := parseItemRef(c)
	if !ok {
		return badRequest(c, "invalid item")
	}

	out, err := h.uc.DeleteCartItem(c.Request().Context(), actor.UserID, ref)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
