package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// echo.Validator の実装。e.Validator に入れて使う。
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	// エラーのフィールド名はJSONの名前で返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// Bind + Validate。失敗したらレスポンスを書いて false を返す。
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, writeValidation(c, err)
	}
	return true, nil
}

func writeValidation(c echo.Context, err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		log.Error().Err(err).Msg("Unexpected error type during validation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal validation error"})
	}

	details := make(map[string]string, len(ves))
	for _, fe := range ves {
		details[fieldPath(fe)] = describe(fe)
	}
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    string(usecase.KindValidation),
		Details: details,
	})
}

// "CheckoutRequest.shipping_address.city" → "shipping_address.city"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
