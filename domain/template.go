package domain

import (
	"github.com/fundwit/go-commons/types"
)

// Template is a reusable process definition owned by exactly one user.
// Deleting a template detaches existing runs instead of deleting them.
type Template struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	UserID      types.ID `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (t *Template) TableName() string {
	return "workflow_templates"
}

// TemplateNode is one step in a template tree. ParentID 0 marks a root.
// DueOffsetDays counts days before the run's anchor date; negative values
// are accepted and place the deadline after the anchor.
type TemplateNode struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	TemplateID types.ID `json:"templateId"`
	Title      string   `json:"title"`
	ParentID   types.ID `json:"parentId"`
	Order      int      `json:"order"`

	DueOffsetDays int `json:"dueOffsetDays"`
}

func (n *TemplateNode) TableName() string {
	return "template_nodes"
}
