package handler

import (
	"net/http"
	"strings"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminAuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAdminAuditLogHandler(uc *usecase.AuditLogUsecase) *AdminAuditLogHandler {
	return &AdminAuditLogHandler{uc: uc}
}

func (h *AdminAuditLogHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/audit-logs", h.list)
}

// GET /admin/audit-logs?action=DELETE_ORDER&resource_type=order&resource_id=12
func (h *AdminAuditLogHandler) list(c echo.Context) error {
	page, limit, err := parsePaging(c, 50)
	if err != nil {
		return badRequest(c, "invalid paging")
	}

	f := repository.AuditLogFilter{
		Page:         page,
		Limit:        limit,
		Action:       model.AuditAction(strings.ToUpper(c.QueryParam("action"))),
		ResourceType: model.AuditResourceType(strings.ToLower(c.QueryParam("resource_type"))),
	}
	if f.ActorUserID, err = parseInt64Query(c, "actor_user_id"); err != nil {
		return badRequest(c, "invalid actor_user_id")
	}
	if f.ResourceID, err = parseInt64Query(c, "resource_id"); err != nil {
		return badRequest(c, "invalid resource_id")
	}
	if f.From, err = parseTimeQuery(c, "from"); err != nil {
		return badRequest(c, "invalid from")
	}
	if f.To, err = parseTimeQuery(c, "to"); err != nil {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
