package dto

import (
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"lightning-payment-gateway/internal/adapter/lnurl"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("safe_url", validateSafeURL)
		_ = v.RegisterValidation("ln_address", validateLightningAddress)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateSafeURL accepts only http/https URLs.
func validateSafeURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true // clearing an optional URL
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateLightningAddress accepts user@domain. Blank entries pass and are
// dropped by the merchant service.
func validateLightningAddress(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	_, err := lnurl.ParseAddress(raw)
	return err == nil
}

// SanitizeStruct trims every exported string field (including *string) of a
// struct pointer and HTML-escapes those tagged sanitize:"html".
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		escape := rt.Field(i).Tag.Get("sanitize") == "html"
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String(), escape))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String(), escape))
			}
		}
	}
}

func sanitize(s string, escape bool) string {
	s = strings.TrimSpace(s)
	if escape {
		return html.EscapeString(s)
	}
	return s
}
