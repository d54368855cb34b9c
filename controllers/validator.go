package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	apperrors "github.com/yashrajoria/payment-api/common/errors"
	"github.com/yashrajoria/payment-api/models"
	"github.com/yashrajoria/payment-api/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxBodySize caps inbound JSON payloads.
const MaxBodySize = 1 << 20

// fieldMessages holds the caller-facing message for each validated field,
// keyed by "<RequestType>.<jsonName>". A "<RequestType>.<jsonName>.<tag>"
// entry overrides it for one failing rule.
var fieldMessages = map[string]string{
	"CreatePaymentIntentRequest.amount.lte":  "Amount must not exceed 999999.99",
	"RefundRequest.amount.lte":               "Amount must not exceed 999999.99",
	"CreatePaymentIntentRequest.amount":      "Amount must be a positive number",
	"CreatePaymentIntentRequest.currency":    "Currency must be a 3-letter uppercase code (e.g., USD)",
	"CreatePaymentIntentRequest.description": "Description must be between 1 and 500 characters",
	"CreatePaymentIntentRequest.metadata":    "Metadata must be an object",
	"ConfirmPaymentRequest.paymentIntentId":  "Payment Intent ID is required",
	"RefundRequest.paymentIntentId":          "Payment Intent ID is required",
	"RefundRequest.amount":                   "Amount must be a positive number if provided",
}

// RequestValidator parses and validates inbound payment requests. Every
// failing field is reported, not only the first.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("flatmap", isFlatMap)

	return &RequestValidator{validate: v}
}

// isFlatMap accepts maps whose values are all JSON scalars.
func isFlatMap(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map {
		return false
	}
	iter := field.MapRange()
	for iter.Next() {
		switch iter.Value().Interface().(type) {
		case nil, string, float64, bool, json.Number:
		default:
			return false
		}
	}
	return true
}

// ParseCreatePaymentIntent binds and validates a create request. The
// description is trimmed before its length is checked.
func (rv *RequestValidator) ParseCreatePaymentIntent(c *gin.Context) (*models.CreatePaymentIntentRequest, error) {
	var req models.CreatePaymentIntentRequest
	fails, err := rv.bindJSON(c, &req)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	if err := rv.check(&req, fails); err != nil {
		return nil, err
	}
	return &req, nil
}

func (rv *RequestValidator) ParseConfirmPayment(c *gin.Context) (*models.ConfirmPaymentRequest, error) {
	var req models.ConfirmPaymentRequest
	fails, err := rv.bindJSON(c, &req)
	if err != nil {
		return nil, err
	}
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	if err := rv.check(&req, fails); err != nil {
		return nil, err
	}
	return &req, nil
}

func (rv *RequestValidator) ParseRefund(c *gin.Context) (*models.RefundRequest, error) {
	var req models.RefundRequest
	fails, err := rv.bindJSON(c, &req)
	if err != nil {
		return nil, err
	}
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	if err := rv.check(&req, fails); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseListPaymentIntents reads limit and starting_after from the query.
// A missing limit defaults to DefaultListLimit; out of range values are
// clamped by the service.
func (rv *RequestValidator) ParseListPaymentIntents(c *gin.Context) (*models.ListPaymentIntentsRequest, error) {
	req := &models.ListPaymentIntentsRequest{
		Limit:         services.DefaultListLimit,
		StartingAfter: strings.TrimSpace(c.Query("starting_after")),
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.FieldError{
				Field:   "limit",
				Message: "Limit must be an integer",
				Value:   raw,
			})
		}
		req.Limit = limit
	}
	return req, nil
}

// bindJSON decodes the body field by field so a bad value in one field
// does not hide problems in the others. dst must point to a struct. A body
// that is not a JSON object fails as a whole.
func (rv *RequestValidator) bindJSON(c *gin.Context, dst any) ([]apperrors.FieldError, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, MaxBodySize))
	if err := dec.Decode(&raw); err != nil || raw == nil {
		msg := "Request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: msg})
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	var fails []apperrors.FieldError
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		value, ok := raw[name]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, v.Field(i).Addr().Interface()); err != nil {
			var shown any
			_ = json.Unmarshal(value, &shown)
			fails = append(fails, apperrors.FieldError{
				Field:   name,
				Message: messageFor(t.Name(), name, ""),
				Value:   shown,
			})
		}
	}
	return fails, nil
}

// check runs struct validation and merges its failures with decode
// failures. A field is reported once even if both stages reject it.
func (rv *RequestValidator) check(req any, fails []apperrors.FieldError) error {
	seen := make(map[string]bool, len(fails))
	for _, f := range fails {
		seen[f.Field] = true
	}

	err := rv.validate.Struct(req)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		typeName := reflect.TypeOf(req).Elem().Name()
		for _, fe := range verrs {
			if seen[fe.Field()] {
				continue
			}
			seen[fe.Field()] = true
			fails = append(fails, apperrors.FieldError{
				Field:   fe.Field(),
				Message: messageFor(typeName, fe.Field(), fe.Tag()),
				Value:   fe.Value(),
			})
		}
	} else if err != nil {
		return err
	}

	if len(fails) > 0 {
		return apperrors.NewValidationError(fails...)
	}
	return nil
}

func messageFor(typeName, field, tag string) string {
	key := typeName + "." + field
	if msg, ok := fieldMessages[key+"."+tag]; ok && tag != "" {
		return msg
	}
	if msg, ok := fieldMessages[key]; ok {
		return msg
	}
	return "Invalid value for " + field
}
