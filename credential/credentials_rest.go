package credential

import (
	"net/http"

	"flowplan/bizerror"
	"flowplan/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathApiKey = "/v1/ai-key"

type apiKeyUpdate struct {
	ApiKey string `json:"apiKey" binding:"required"`
}

func RegisterApiKeyRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathApiKey, middleWares...)
	g.GET("", handleCheckApiKey)
	g.PUT("", handleSetApiKey)
}

func handleCheckApiKey(c *gin.Context) {
	sec := session.FindSecurityContext(c)
	hasKey, err := HasApiKeyFunc(sec.Identity.ID)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"hasApiKey": hasKey})
}

func handleSetApiKey(c *gin.Context) {
	update := apiKeyUpdate{}
	if err := c.ShouldBindBodyWith(&update, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	sec := session.FindSecurityContext(c)
	if err := SetApiKeyFunc(sec.Identity.ID, update.ApiKey); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
