package middleware

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/gin-gonic/gin"
)

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithDomainError maps the error kinds from the models package onto
// status codes. Anything unrecognised is a persistence failure: it is logged
// and answered with fallback plus the error text as diagnostic detail.
func RespondWithDomainError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, models.ErrInsufficientFunds):
		RespondWithError(c, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, models.ErrValidation):
		RespondWithError(c, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, models.ErrConflict):
		RespondWithError(c, http.StatusConflict, capitalize(err.Error()))
	default:
		log.Printf("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": fallback,
			"details": err.Error(),
		})
	}
}

// ParseIDParam reads a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
