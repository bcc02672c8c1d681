package sessions

import (
	"net/http"
	"time"

	"flowplan/bizerror"
	"flowplan/session"

	"github.com/gin-gonic/gin"
)

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", DetailSessionSecurityContext)
}

func DetailSessionSecurityContext(c *gin.Context) {
	sec := session.FindSecurityContext(c)
	if sec == nil {
		panic(bizerror.ErrUnauthenticated)
	}

	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl > 0 {
		securityContext := session.Session{Token: sec.Token, Identity: sec.Identity, SigningTime: now}
		session.TokenCache.Set(sec.Token, &securityContext, ttl)
		c.JSON(http.StatusOK, &securityContext)
	} else {
		panic(bizerror.ErrUnauthenticated)
	}
}
