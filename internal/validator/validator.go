package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	id_translations "github.com/go-playground/validator/v10/translations/id"
)

// trans is the singleton Indonesian translator for validation errors,
// matching the language of the response error messages.
var trans ut.Translator

// Setup registers JSON tag names and Indonesian translations on Gin's
// binding engine. Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Error messages name the JSON field, not the Go struct field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := id.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("id")
	id_translations.RegisterDefaultTranslations(v, trans)
}

// TranslateErrors converts a binding error into a field → message map.
// Non-validation errors (malformed JSON) collapse into a "detail" entry.
func TranslateErrors(err error) map[string]string {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"detail": err.Error()}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
