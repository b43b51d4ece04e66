package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var supportedPlatforms = map[string]bool{
	"amazon":   true,
	"flipkart": true,
	"reliance": true,
}

// RegisterValidations installs custom binding validators and makes
// validation errors report JSON field names.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("marketplace", validMarketplace); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

func validMarketplace(fl validator.FieldLevel) bool {
	return supportedPlatforms[strings.ToLower(fl.Field().String())]
}
