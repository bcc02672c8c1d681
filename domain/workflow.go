package domain

import (
	"github.com/fundwit/go-commons/types"
)

type WorkflowStatus string

const (
	WorkflowStatusActive    = WorkflowStatus("ACTIVE")
	WorkflowStatusDone      = WorkflowStatus("DONE")
	WorkflowStatusCancelled = WorkflowStatus("CANCELLED")
)

func (s WorkflowStatus) IsValid() bool {
	return s == WorkflowStatusActive || s == WorkflowStatusDone || s == WorkflowStatusCancelled
}

// Workflow is a concrete, time-bound run of a template. TemplateID becomes 0
// when the source template is deleted; run data is unaffected.
type Workflow struct {
	ID         types.ID       `json:"id" gorm:"primary_key"`
	UserID     types.ID       `json:"userId"`
	TemplateID types.ID       `json:"templateId"`
	Title      string         `json:"title"`
	DueDate    Date           `json:"dueDate" sql:"type:DATE NOT NULL"`
	Status     WorkflowStatus `json:"status"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (w *Workflow) TableName() string {
	return "workflows"
}

type ItemStatus string

const (
	ItemStatusTodo       = ItemStatus("TODO")
	ItemStatusInProgress = ItemStatus("IN_PROGRESS")
	ItemStatusDone       = ItemStatus("DONE")
)

func (s ItemStatus) IsValid() bool {
	return s == ItemStatusTodo || s == ItemStatusInProgress || s == ItemStatusDone
}

// WorkflowItem is one step in a run tree, cloned by value from a template
// node at instantiation time and never re-synced afterwards.
type WorkflowItem struct {
	ID         types.ID   `json:"id" gorm:"primary_key"`
	WorkflowID types.ID   `json:"workflowId"`
	Title      string     `json:"title"`
	ParentID   types.ID   `json:"parentId"`
	Order      int        `json:"order"`
	Status     ItemStatus `json:"status"`
	DueDate    *Date      `json:"dueDate" sql:"type:DATE"`

	// DueOffsetDays keeps the source offset for audit.
	DueOffsetDays int `json:"dueOffsetDays"`
}

func (i *WorkflowItem) TableName() string {
	return "workflow_items"
}
