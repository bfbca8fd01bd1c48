package middleware

import (
	"strings"

	"shared-account-ledger/internal/adapter/http/dto"
	"shared-account-ledger/internal/core/domain"
	"shared-account-ledger/internal/core/ports"
	"shared-account-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// IdentityAuth verifies the bearer token and stores the caller's identity in
// the request context. The ledger trusts the signing authentication layer;
// it only checks signature, expiry and subject shape here.
func IdentityAuth(tokens ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, apperror.ErrInvalidToken())
			return
		}

		identity, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abort(c, apperror.ErrInvalidToken())
			return
		}
		if !dto.ValidIdentity(string(identity)) {
			abort(c, apperror.ErrInvalidToken())
			return
		}

		c.Set(CtxIdentity, identity)
		c.Next()
	}
}

// CallerIdentity retrieves the authenticated identity set by IdentityAuth.
func CallerIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return "", false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
