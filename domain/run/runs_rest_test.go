package run_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flowplan/bizerror"
	"flowplan/domain"
	"flowplan/domain/run"
	"flowplan/session"
	"flowplan/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestWorkflowsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	run.RegisterWorkflowsRestAPI(router)

	t.Run("should require template id and due date on creation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, run.PathWorkflows, strings.NewReader(`{}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param",
			"message":"Key: 'RunCreation.TemplateID' Error:Field validation for 'TemplateID' failed on the 'required' tag\n` +
			`Key: 'RunCreation.DueDate' Error:Field validation for 'DueDate' failed on the 'required' tag",
			"data":null}`))
	})

	t.Run("should be able to handle creation request", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2024, 6, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		var received *run.RunCreation
		run.CreateRunFunc = func(c *run.RunCreation, sec *session.Session) (*domain.Workflow, error) {
			received = c
			return &domain.Workflow{ID: 200, UserID: 10, TemplateID: c.TemplateID, Title: c.Title,
				DueDate: *c.DueDate, Status: domain.WorkflowStatusActive, CreateTime: demoTime}, nil
		}
		reqBody := `{"templateId": "123", "dueDate": "2024-06-30", "title": "client A onboarding"}`
		req := httptest.NewRequest(http.MethodPost, run.PathWorkflows, strings.NewReader(reqBody))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id": "200", "userId": "10", "templateId": "123",
			"title": "client A onboarding", "dueDate": "2024-06-30", "status": "ACTIVE",
			"createTime": "` + timeString + `"}`))
		Expect(received.TemplateID).To(Equal(types.ID(123)))
		Expect(received.DueDate.String()).To(Equal("2024-06-30"))
	})

	t.Run("should render the tree depth guard as bad request", func(t *testing.T) {
		run.CreateRunFunc = func(c *run.RunCreation, sec *session.Session) (*domain.Workflow, error) {
			return nil, bizerror.ErrTooDeep
		}
		reqBody := `{"templateId": "123", "dueDate": "2024-06-30"}`
		req := httptest.NewRequest(http.MethodPost, run.PathWorkflows, strings.NewReader(reqBody))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"workflow.tree_too_deep", "message":"tree is too deep", "data":null}`))
	})

	t.Run("should render the run detail with its item tree", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2024, 6, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		due := domain.DateOf(2024, time.June, 28)
		run.DetailRunFunc = func(id types.ID, sec *session.Session) (*run.RunDetail, error) {
			return &run.RunDetail{
				Workflow: domain.Workflow{ID: id, UserID: 10, TemplateID: 123, Title: "client A onboarding",
					DueDate: domain.DateOf(2024, time.June, 30), Status: domain.WorkflowStatusActive, CreateTime: demoTime},
				Items: []run.ItemTreeView{
					{ID: 301, Title: "Contract", Order: 1, Status: domain.ItemStatusTodo, Children: []run.ItemTreeView{
						{ID: 302, Title: "Sign", Order: 1, Status: domain.ItemStatusTodo, DueDate: &due,
							DueOffsetDays: 2, Children: []run.ItemTreeView{}},
					}},
				},
			}, nil
		}
		req := httptest.NewRequest(http.MethodGet, run.PathWorkflows+"/200", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id": "200", "userId": "10", "templateId": "123",
			"title": "client A onboarding", "dueDate": "2024-06-30", "status": "ACTIVE",
			"createTime": "` + timeString + `",
			"items": [
				{"id": "301", "title": "Contract", "order": 1, "status": "TODO", "dueDate": null,
				 "dueOffsetDays": 0, "children": [
					{"id": "302", "title": "Sign", "order": 1, "status": "TODO", "dueDate": "2024-06-28",
					 "dueOffsetDays": 2, "children": []}
				]}
			]}`))
	})
}

func TestWorkflowItemsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	run.RegisterWorkflowsRestAPI(router)

	t.Run("should pass the patch through with its id", func(t *testing.T) {
		var receivedId types.ID
		var received *run.ItemUpdate
		run.UpdateItemFunc = func(id types.ID, u *run.ItemUpdate, sec *session.Session) (*domain.WorkflowItem, error) {
			receivedId = id
			received = u
			return &domain.WorkflowItem{ID: id, WorkflowID: 200, Title: "Contract", Order: 1,
				Status: *u.Status}, nil
		}
		reqBody := `{"status": "DONE"}`
		req := httptest.NewRequest(http.MethodPatch, run.PathWorkflowItems+"/301", strings.NewReader(reqBody))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id": "301", "workflowId": "200", "title": "Contract",
			"parentId": "0", "order": 1, "status": "DONE", "dueDate": null, "dueOffsetDays": 0}`))
		Expect(receivedId).To(Equal(types.ID(301)))
		Expect(*received.Status).To(Equal(domain.ItemStatusDone))
		Expect(received.DueDate.Set).To(BeFalse())
	})

	t.Run("should keep an explicit null due date distinguishable", func(t *testing.T) {
		var received *run.ItemUpdate
		run.UpdateItemFunc = func(id types.ID, u *run.ItemUpdate, sec *session.Session) (*domain.WorkflowItem, error) {
			received = u
			return &domain.WorkflowItem{ID: id, WorkflowID: 200, Title: "Contract", Status: domain.ItemStatusTodo}, nil
		}
		req := httptest.NewRequest(http.MethodPatch, run.PathWorkflowItems+"/301",
			strings.NewReader(`{"dueDate": null}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(received.DueDate.Set).To(BeTrue())
		Expect(received.DueDate.Date).To(BeNil())
	})
}
