package handler

import (
	"net/http"
	"strconv"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /orders のHTTP（購入者）
type OrderHandler struct {
	checkout  *usecase.CheckoutUsecase
	orders    *usecase.OrderUsecase
	lifecycle *usecase.OrderLifecycleUsecase
}

// DI
const HeaderIdempotencyKey = "X-Idempotency-Key"

func NewOrderHandler(checkout *usecase.CheckoutUsecase, orders *usecase.OrderUsecase, lifecycle *usecase.OrderLifecycleUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, lifecycle: lifecycle}
}

type CheckoutRequest struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER CARD FINANCING"`
	ContactEmail    string                `json:"contact_email" validate:"omitempty,email,max=255"`
	Notes           string                `json:"notes" validate:"max=1000"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(jwtSecret))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req CheckoutRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.checkout.Checkout(c.Request().Context(), actor.UserID, usecase.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		ContactEmail:    req.ContactEmail,
		Notes:           req.Notes,
		//二重送信防止キーはヘッダーから受け取る
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/orders/"+strconv.FormatInt(out.ID, 10))
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	page, limit, err := parsePaging(c, 20)
	if err != nil {
		return badRequest(c, "invalid paging")
	}

	out, err := h.orders.ListMyOrders(c.Request().Context(), actor.UserID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.orders.GetMyOrderDetail(c.Request().Context(), actor.UserID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 購入者のキャンセル（PENDING / CONFIRMED のみ）
func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	// 管理者トークンでもここでは購入者として扱う
	actor.Admin = false
	out, err := h.lifecycle.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
