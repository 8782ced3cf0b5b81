package handler

import (
	"net/http"
	"time"

	"github.com/eaglebank/ledger-service/shared/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every handler under /api/v1. An origin list containing
// "*" allows any origin.
func NewRouter(users *UserHandler, accounts *AccountHandler, transactions *TransactionHandler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.LoggingMiddleware())
	r.Use(cors.New(corsConfig(allowOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		u := v1.Group("/users")
		u.POST("", users.CreateUser)
		u.GET("", users.ListUsers)
		u.GET("/:userId", users.GetUser)
		u.PUT("/:userId", users.UpdateUser)
		u.DELETE("/:userId", users.DeleteUser)

		a := v1.Group("/accounts")
		a.POST("", accounts.CreateAccount)
		a.GET("", accounts.ListAccounts)
		a.GET("/:accountId", accounts.GetAccount)
		a.PUT("/:accountId", accounts.UpdateAccount)
		a.DELETE("/:accountId", accounts.DeleteAccount)

		t := v1.Group("/transactions")
		t.POST("", transactions.CreateTransaction)
		t.GET("", transactions.ListTransactions)
		t.GET("/:transactionId", transactions.GetTransaction)
		t.DELETE("/:transactionId", transactions.DeleteTransaction)
	}

	return r
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range allowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowOrigins
	cfg.AllowCredentials = true
	return cfg
}
