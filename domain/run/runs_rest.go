package run

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
	PathWorkflows     = "/v1/workflows"
	PathWorkflowItems = "/v1/workflow-items"
)

func RegisterWorkflowsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkflows, middleWares...)
	g.GET("", handleQueryRuns)
	g.POST("", handleCreateRun)
	g.GET(":id", handleDetailRun)
	g.PATCH(":id", handleUpdateRun)
	g.DELETE(":id", handleDeleteRun)

	i := r.Group(PathWorkflowItems, middleWares...)
	i.PATCH(":id", handleUpdateItem)
}

func handleQueryRuns(c *gin.Context) {
	records, err := QueryRunsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateRun(c *gin.Context) {
	creation := RunCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateRunFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDetailRun(c *gin.Context) {
	record, err := DetailRunFunc(parseId(c), session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateRun(c *gin.Context) {
	update := RunUpdate{}
	if err := c.ShouldBindBodyWith(&update, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdateRunFunc(parseId(c), &update, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteRun(c *gin.Context) {
	if err := DeleteRunFunc(parseId(c), session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleUpdateItem(c *gin.Context) {
	update := ItemUpdate{}
	if err := c.ShouldBindBodyWith(&update, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdateItemFunc(parseId(c), &update, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func parseId(c *gin.Context) types.ID {
	parsedId, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return parsedId
}
