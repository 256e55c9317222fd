package service

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/dealerhub/internal/identity/domain"
)

var taxIDPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// fieldErrors maps struct field names to the sentinel returned when that
// field fails a validator tag.
var fieldErrors = map[string]error{
	"NationalID":    domain.ErrInvalidNationalID,
	"Name":          domain.ErrInvalidName,
	"Mobile":        domain.ErrInvalidMobile,
	"Email":         domain.ErrInvalidEmail,
	"Address":       domain.ErrInvalidAddress,
	"ContactPerson": domain.ErrInvalidContactPerson,
	"GSTNumber":     domain.ErrInvalidGSTNumber,
}

func translateValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	if mapped, ok := fieldErrors[verrs[0].StructField()]; ok {
		return mapped
	}
	return err
}
