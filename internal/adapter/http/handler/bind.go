package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"lightning-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const jsonContentType = "application/json; charset=utf-8"

// bindJSON decodes the body into dst and maps decode failures onto
// AppErrors. amountField names the field whose type errors read as an
// invalid amount; "" disables that mapping.
func bindJSON(c *gin.Context, dst interface{}, amountField string) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ErrPayloadTooLarge(maxErr.Limit)
	}
	if amountField != "" {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == amountField {
			return apperror.ErrInvalidAmount()
		}
		if errors.Is(err, io.EOF) {
			return apperror.ErrInvalidAmount()
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if strings.EqualFold(fe.Field(), amountField) {
					return apperror.ErrInvalidAmount()
				}
			}
		}
	}
	return apperror.Validation(err.Error())
}
