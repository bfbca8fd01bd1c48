package handler

import (
	"shared-account-ledger/internal/adapter/http/middleware"
	redisStore "shared-account-ledger/internal/adapter/storage/redis"
	"shared-account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Ledger         ports.LedgerService
	Tokens         ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil disables rate limiting
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter wires middleware, handlers and routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Recovery(deps.Logger),
		middleware.MaxBodySize(maxBodyBytes),
	)

	accounts := NewAccountHandler(deps.Ledger)
	withdrawals := NewWithdrawalHandler(deps.Ledger)
	health := NewHealthHandler(deps.HealthCheckers...)

	router.GET("/health", health.Check)

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.IdentityAuth(deps.Tokens))
	{
		v1.POST("/accounts", rl("mutations"), accounts.Create)
		v1.GET("/accounts", rl("queries"), accounts.List)
		v1.GET("/accounts/:id/owners", rl("queries"), accounts.GetOwners)
		v1.GET("/accounts/:id/balance", rl("queries"), accounts.GetBalance)
		v1.POST("/accounts/:id/deposits", rl("mutations"), accounts.Deposit)
		v1.GET("/accounts/:id/facts", rl("queries"), accounts.GetFacts)

		v1.POST("/accounts/:id/withdrawals", rl("mutations"), withdrawals.Request)
		v1.GET("/accounts/:id/withdrawals", rl("queries"), withdrawals.List)
		v1.POST("/accounts/:id/withdrawals/:wid/approvals", rl("mutations"), withdrawals.Approve)
		v1.GET("/accounts/:id/withdrawals/:wid/approvals", rl("queries"), withdrawals.GetApprovals)
		v1.POST("/accounts/:id/withdrawals/:wid/execute", rl("mutations"), withdrawals.Execute)
	}

	return router
}
