package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	orders    *usecase.OrderUsecase
	lifecycle *usecase.OrderLifecycleUsecase
}

func NewAdminOrderHandler(orders *usecase.OrderUsecase, lifecycle *usecase.OrderLifecycleUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, lifecycle: lifecycle}
}

type PaymentStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=PAID FAILED REFUNDED"`
}

type transitionFunc func(ctx context.Context, actor usecase.Actor, orderID int64) (usecase.OrderOutput, error)

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.GET("/orders/by-number/:number", h.byNumber)

	admin.POST("/orders/:id/confirm", h.transition(h.lifecycle.Confirm))
	admin.POST("/orders/:id/process", h.transition(h.lifecycle.StartProcessing))
	admin.POST("/orders/:id/ship", h.transition(h.lifecycle.Ship))
	admin.POST("/orders/:id/deliver", h.transition(h.lifecycle.Deliver))
	admin.POST("/orders/:id/cancel", h.transition(h.lifecycle.Cancel))

	admin.PUT("/orders/:id/payment", h.updatePayment)
	admin.DELETE("/orders/:id", h.delete)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c, 50)
	if err != nil {
		return badRequest(c, "invalid paging")
	}

	f := repository.AdminOrderListFilter{
		Page:          page,
		Limit:         limit,
		Status:        strings.ToUpper(c.QueryParam("status")),
		PaymentStatus: strings.ToUpper(c.QueryParam("payment_status")),
	}

	if f.UserID, err = parseInt64Query(c, "user_id"); err != nil {
		return badRequest(c, "invalid user_id")
	}
	if f.From, err = parseTimeQuery(c, "from"); err != nil {
		return badRequest(c, "invalid from")
	}
	if f.To, err = parseTimeQuery(c, "to"); err != nil {
		return badRequest(c, "invalid to")
	}

	out, err := h.orders.AdminList(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) byNumber(c echo.Context) error {
	out, err := h.orders.FindByOrderNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// confirm / process / ship / deliver / cancel は形が同じ
func (h *AdminOrderHandler) transition(fn transitionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		orderID, ok := parseID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}

		// 操作した管理者（監査ログ用）
		actor, ok := actorFrom(c)
		if !ok {
			return unauthorizedJSON(c)
		}

		out, err := fn(c.Request().Context(), actor, orderID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *AdminOrderHandler) updatePayment(c echo.Context) error {
	orderID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req PaymentStatusUpdateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var fn transitionFunc
	switch req.Status {
	case "PAID":
		fn = h.lifecycle.MarkPaid
	case "FAILED":
		fn = h.lifecycle.MarkFailed
	default:
		fn = h.lifecycle.MarkRefunded
	}

	out, err := fn(c.Request().Context(), actor, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) delete(c echo.Context) error {
	orderID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	if err := h.lifecycle.Delete(c.Request().Context(), actor, orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
