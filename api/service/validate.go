package service

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const principalSize = 32

// RegisterValidations installs the custom binding rules. It must run
// before the first request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	return v.RegisterValidation("principal", validPrincipal)
}

// validPrincipal accepts base58 encoded 32 byte public keys.
func validPrincipal(fl validator.FieldLevel) bool {
	raw, err := base58.Decode(fl.Field().String())
	return err == nil && len(raw) == principalSize
}
