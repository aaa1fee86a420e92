package server

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// stockRequest carries the path and query parameters of the stock routes
type stockRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
	Period string `json:"period" validate:"omitempty,oneof=annual quarterly"`
}

type requestValidator struct {
	validate *validator.Validate
}

// newRequestValidator panics if the custom tags cannot be registered.
func newRequestValidator() *requestValidator {
	v, err := buildValidator()
	if err != nil {
		panic(fmt.Sprintf("server: %v", err))
	}
	return &requestValidator{validate: v}
}

func buildValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("ticker", isValidTicker); err != nil {
		return nil, fmt.Errorf("register ticker validation: %w", err)
	}

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v, nil
}

func isValidTicker(fl validator.FieldLevel) bool {
	return common.IsValidTicker(fl.Field().String())
}

// check returns the failing field name and a readable message, or "" when valid
func (v *requestValidator) check(req *stockRequest) (string, string) {
	err := v.validate.Struct(req)
	if err == nil {
		return "", ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "request", err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "ticker":
		return "ticker", fmt.Sprintf("invalid ticker %q: expected 1-%d letters, digits, dots or hyphens",
			req.Ticker, common.MaxTickerLength)
	case "period":
		return "period", fmt.Sprintf("invalid period %q: expected %s or %s",
			req.Period, models.PeriodAnnual, models.PeriodQuarterly)
	}
	return fe.Field(), fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
