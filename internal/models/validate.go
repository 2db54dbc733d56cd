package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

var validate = validator.New()

// validateStruct runs tag validation and reports failures as InvalidRequest.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return apperr.New(apperr.InvalidRequest, "invalid fields: "+strings.Join(fields, ", "))
	}
	return apperr.Wrap(apperr.InvalidRequest, err, "invalid request")
}

func requirePositive(name string, m money.Money) error {
	if !m.IsPositive() {
		return apperr.Newf(apperr.InvalidRequest, "%s must be positive", name)
	}
	return nil
}
