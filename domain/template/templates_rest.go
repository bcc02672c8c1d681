package template

import (
	"errors"
	"net/http"

	"flowplan/bizerror"
	"flowplan/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathTemplates     = "/v1/templates"
	PathTemplateNodes = "/v1/template-nodes"
)

func RegisterTemplatesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTemplates, middleWares...)
	g.GET("", handleQueryTemplates)
	g.POST("", handleCreateTemplate)
	g.DELETE(":id", handleDeleteTemplate)
	g.GET(":id/nodes", handleListNodes)
	g.POST(":id/nodes", handleCreateNode)

	n := r.Group(PathTemplateNodes, middleWares...)
	n.DELETE(":id", handleDeleteNode)
}

func handleQueryTemplates(c *gin.Context) {
	records, err := QueryTemplatesFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateTemplate(c *gin.Context) {
	creation := TemplateCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateTemplateFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteTemplate(c *gin.Context) {
	if err := DeleteTemplateFunc(parseId(c), session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleListNodes(c *gin.Context) {
	records, err := ListNodesFunc(parseId(c), session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"nodes": records})
}

func handleCreateNode(c *gin.Context) {
	creation := NodeCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	creation.TemplateID = parseId(c)
	record, err := CreateNodeFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteNode(c *gin.Context) {
	if err := DeleteNodeFunc(parseId(c), session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func parseId(c *gin.Context) types.ID {
	parsedId, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return parsedId
}
