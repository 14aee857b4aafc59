package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/middleware"
	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// actorFromContext names the authenticated user for the activity feed.
func actorFromContext(c *gin.Context) *string {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	if name == "" {
		return nil
	}
	return &name
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
