package cookie

import (
	"github.com/gin-gonic/gin"
)

// AccessTokenCookieName is set by the auth service; this service only reads it.
const AccessTokenCookieName = "access_token"

func GetAccessToken(c *gin.Context) string {
	token, _ := c.Cookie(AccessTokenCookieName)
	return token
}
