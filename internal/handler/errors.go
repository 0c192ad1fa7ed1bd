package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Item    *model.ItemRef    `json:"item,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// 種類 → HTTPステータス
var statusByKind = map[usecase.ErrorKind]int{
	usecase.KindValidation:          http.StatusBadRequest,
	usecase.KindUnauthorized:        http.StatusUnauthorized,
	usecase.KindForbidden:           http.StatusForbidden,
	usecase.KindNotFound:            http.StatusNotFound,
	usecase.KindOrderNotFound:       http.StatusNotFound,
	usecase.KindItemUnavailable:     http.StatusConflict,
	usecase.KindNotCancellable:      http.StatusConflict,
	usecase.KindInvalidTransition:   http.StatusConflict,
	usecase.KindConcurrencyConflict: http.StatusConflict,
	usecase.KindPersistenceFailure:  http.StatusInternalServerError,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	oe, ok := usecase.AsOrderError(err)
	if !ok {
		log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		//500
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	status, ok := statusByKind[oe.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := ErrorResponse{Error: oe.Message, Code: string(oe.Kind), Item: oe.Item, Reason: string(oe.Reason)}
	if oe.Kind == usecase.KindPersistenceFailure {
		// 中身は返さない
		body.Error = "temporarily unavailable"
	}
	if oe.Retryable() {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindValidation)})
}

func unauthorizedJSON(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.KindUnauthorized)})
}

// AuthJWTが入れた操作者
func actorFrom(c echo.Context) (usecase.Actor, bool) {
	return middleware.ActorFrom(c)
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// /:kind/:id → ItemRef
func parseItemRef(c echo.Context) (model.ItemRef, bool) {
	kind, err := model.ParseItemKind(c.Param("kind"))
	if err != nil {
		return model.ItemRef{}, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return model.ItemRef{}, false
	}
	return model.ItemRef{Kind: kind, ID: id}, true
}

// page / limit のクエリ（未指定ならdefault）
func parsePaging(c echo.Context, defLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		page = p
	}

	limit := defLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		limit = l
	}
	return page, limit, nil
}

// RFC3339の時刻クエリ（空ならnil）
func parseTimeQuery(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseInt64Query(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
