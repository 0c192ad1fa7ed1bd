package handler

import (
	"net/http"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品1件の参照（公開）と在庫調整（管理者）
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock" validate:"required,gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	e.GET("/catalog/:kind/:id", h.detail)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.PUT("/inventory/:kind/:id", h.updateInventory)
	admin.GET("/inventory/:kind/:id/movements", h.movements)
}

func (h *CatalogHandler) detail(c echo.Context) error {
	ref, ok := parseItemRef(c)
	if !ok {
		return badRequest(c, "invalid item")
	}

	item, err := h.uc.GetItem(c.Request().Context(), ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) updateInventory(c echo.Context) error {
	ref, ok := parseItemRef(c)
	if !ok {
		return badRequest(c, "invalid item")
	}

	var req InventoryUpdateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	if err := h.uc.AdminSetStock(c.Request().Context(), actor, ref, *req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *CatalogHandler) movements(c echo.Context) error {
	ref, ok := parseItemRef(c)
	if !ok {
		return badRequest(c, "invalid item")
	}

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	out, err := h.uc.AdminListMovements(c.Request().Context(), actor, ref)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		out = []model.InventoryMovement{}
	}
	return c.JSON(http.StatusOK, out)
}
