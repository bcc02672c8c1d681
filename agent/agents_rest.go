package agent

import (
	"net/http"

	"flowplan/bizerror"
	"flowplan/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathAgent = "/v1/agent"

type parseRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Model  string `json:"model"`
}

type createRequest struct {
	Parsed *ParsedWorkflow `json:"parsed" binding:"required"`
}

func RegisterAgentRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAgent, middleWares...)
	g.POST("/parse", handleParseWorkflow)
	g.POST("/workflows", handleCreateFromParsed)
}

func handleParseWorkflow(c *gin.Context) {
	req := parseRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	// the request context aborts the provider call on client disconnect
	result, err := ParseWorkflowFunc(c.Request.Context(), req.Prompt, req.Model, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleCreateFromParsed(c *gin.Context) {
	req := createRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := CreateFromParsedFunc(req.Parsed, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
