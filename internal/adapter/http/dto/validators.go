package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// identityRe accepts address-like opaque tokens: alphanumerics plus the
// separators common in address encodings. Identities are otherwise opaque
// to the ledger; this only rejects obviously malformed or oversized input.
var identityRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9:._-]{0,127}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("identity", validateIdentity)
	}
}

func validateIdentity(fl validator.FieldLevel) bool {
	return identityRe.MatchString(fl.Field().String())
}

// ValidIdentity reports whether s is an acceptable identity token. Exposed
// for the auth middleware, which validates token subjects outside binding.
func ValidIdentity(s string) bool {
	return identityRe.MatchString(s)
}
