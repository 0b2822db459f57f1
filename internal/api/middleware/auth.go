// internal/api/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireCredentials rejects requests while no admin credential record is
// stored, so calls fail fast instead of reaching the backend without a token.
// The token is not verified here; the backend does that and the client refreshes.
func RequireCredentials(store apiclient.CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := store.Load(c.Request.Context())
		if errors.Is(err, apiclient.ErrNoCredentials) || (err == nil && creds.AccessToken == "") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin session is not signed in"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load admin credentials"})
			return
		}

		username := creds.Username
		if claims, err := auth.InspectToken(creds.AccessToken); err == nil && username == "" {
			username = claims.Name()
		}
		c.Set("admin_username", username)
		c.Next()
	}
}
