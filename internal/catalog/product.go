// Package catalog holds the product collection, its persistence contract and the search filter.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Product is a single catalog item.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Img   string  `json:"img"`
	Info  string  `json:"info"`
	Price float64 `json:"price"`
	Liked bool    `json:"liked"`
}

// AddInput is the data submitted to create a product.
// Price accepts a number or a numeric string, the way a form field delivers it.
type AddInput struct {
	Name  string `json:"name" validate:"required"`
	Img   string `json:"img"  validate:"required"`
	Info  string `json:"info" validate:"required"`
	Price any    `json:"price"`
}

var inputValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks the input and returns the parsed price.
func (in AddInput) validate() (float64, error) {
	fields := make(map[string]string)
	if err := inputValidator.Struct(in); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return 0, fmt.Errorf("failed to validate product input: %w", err)
		}
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}

	price, rule := parsePrice(in.Price)
	if rule != "" {
		fields["price"] = rule
	}
	if len(fields) > 0 {
		return 0, &ValidationError{Fields: fields}
	}
	return price, nil
}

// parsePrice returns the price and, when it is unusable, the rule it failed.
func parsePrice(v any) (float64, string) {
	switch p := v.(type) {
	case nil:
		return 0, "required"
	case bool:
		return 0, "number"
	case string:
		if strings.TrimSpace(p) == "" {
			return 0, "required"
		}
	}
	price, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, "number"
	}
	if price < 0 {
		return 0, "min"
	}
	return price, ""
}

// complete reports whether p satisfies the invariants of a persisted product.
func (p Product) complete() bool {
	return p.ID != "" &&
		p.Name != "" &&
		p.Img != "" &&
		p.Info != "" &&
		!math.IsNaN(p.Price) && !math.IsInf(p.Price, 0) && p.Price >= 0
}
