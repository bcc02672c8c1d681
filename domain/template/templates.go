package template

import (
	"context"

	"flowplan/bizerror"
	"flowplan/common"
	"flowplan/domain"
	"flowplan/domain/tree"
	"flowplan/event"
	"flowplan/persistence"
	"flowplan/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryTemplatesFunc = QueryTemplates
	CreateTemplateFunc = CreateTemplate
	DeleteTemplateFunc = DeleteTemplate

	CreateNodeFunc = CreateNode
	ListNodesFunc  = ListNodes
	DeleteNodeFunc = DeleteNode
)

type TemplateCreation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type NodeCreation struct {
	TemplateID    types.ID `json:"templateId"`
	Title         string   `json:"title" binding:"required"`
	ParentID      types.ID `json:"parentId"`
	Order         int      `json:"order"`
	DueOffsetDays int      `json:"dueOffsetDays"`
}

// NodeTreeView is the nested rendering of a template subtree.
type NodeTreeView struct {
	ID            types.ID       `json:"id"`
	Title         string         `json:"title"`
	Order         int            `json:"order"`
	DueOffsetDays int            `json:"dueOffsetDays"`
	Children      []NodeTreeView `json:"children"`
}

func QueryTemplates(sec *session.Session) ([]domain.Template, error) {
	var templates []domain.Template
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.Template{UserID: sec.Identity.ID}).
		Order("create_time DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func CreateTemplate(c *TemplateCreation, sec *session.Session) (*domain.Template, error) {
	title := c.Title
	if title == "" {
		title = "New Template"
	}
	t := domain.Template{
		ID:          common.NextId(idWorker),
		UserID:      sec.Identity.ID,
		Title:       title,
		Description: c.Description,
		CreateTime:  types.CurrentTimestamp(),
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent("TEMPLATE", t.ID, t.Title, event.EventCategoryCreated, nil, &sec.Identity, tx)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &t, nil
}

// DeleteTemplate removes the template and its nodes. Existing runs are
// detached, not deleted.
func DeleteTemplate(id types.ID, sec *session.Session) error {
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		t, err := findTemplate(tx, id, sec)
		if err != nil {
			return err
		}

		if err := tx.Model(&domain.Workflow{}).Where("template_id = ?", t.ID).
			Update("template_id", 0).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.TemplateNode{}, "template_id = ?", t.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Template{}, "id = ?", t.ID).Error; err != nil {
			return err
		}

		ev, err = event.CreateEvent("TEMPLATE", t.ID, t.Title, event.EventCategoryDeleted, nil, &sec.Identity, tx)
		return err
	})
	if txErr != nil {
		return txErr
	}
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return nil
}

func CreateNode(c *NodeCreation, sec *session.Session) (*domain.TemplateNode, error) {
	var created *domain.TemplateNode
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		t, err := findTemplate(tx, c.TemplateID, sec)
		if err != nil {
			return err
		}

		if c.ParentID != 0 {
			var parent domain.TemplateNode
			if err := tx.Where(&domain.TemplateNode{ID: c.ParentID, TemplateID: t.ID}).
				First(&parent).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &bizerror.ErrBadParam{Cause: err}
				}
				return err
			}

			forest, err := loadForest(tx, t.ID)
			if err != nil {
				return err
			}
			if forest.PathDepth(parent.ID)+1 > tree.MaxDepth {
				return bizerror.ErrTooDeep
			}
		}

		n := domain.TemplateNode{
			ID:            common.NextId(idWorker),
			TemplateID:    t.ID,
			Title:         c.Title,
			ParentID:      c.ParentID,
			Order:         c.Order,
			DueOffsetDays: c.DueOffsetDays,
		}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		created = &n
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

func ListNodes(templateID types.ID, sec *session.Session) ([]NodeTreeView, error) {
	var views []NodeTreeView
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		t, err := findTemplate(tx, templateID, sec)
		if err != nil {
			return err
		}
		nodes, forest, err := loadNodes(tx, t.ID)
		if err != nil {
			return err
		}

		index := map[types.ID]domain.TemplateNode{}
		for _, n := range nodes {
			index[n.ID] = n
		}
		var render func(id types.ID) NodeTreeView
		render = func(id types.ID) NodeTreeView {
			n := index[id]
			view := NodeTreeView{ID: n.ID, Title: n.Title, Order: n.Order,
				DueOffsetDays: n.DueOffsetDays, Children: []NodeTreeView{}}
			for _, child := range forest.Children(id) {
				view.Children = append(view.Children, render(child))
			}
			return view
		}
		views = []NodeTreeView{}
		for _, root := range forest.Roots() {
			views = append(views, render(root))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return views, nil
}

// DeleteNode removes a node and its whole subtree.
func DeleteNode(id types.ID, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	return db.Transaction(func(tx *gorm.DB) error {
		var node domain.TemplateNode
		if err := tx.Where("id = ?", id).First(&node).Error; err != nil {
			return err
		}
		if _, err := findTemplate(tx, node.TemplateID, sec); err != nil {
			return err
		}

		forest, err := loadForest(tx, node.TemplateID)
		if err != nil {
			return err
		}
		doomed := []types.ID{node.ID}
		for cursor := 0; cursor < len(doomed); cursor++ {
			doomed = append(doomed, forest.Children(doomed[cursor])...)
		}
		return tx.Delete(&domain.TemplateNode{}, "id in (?)", doomed).Error
	})
}

func findTemplate(db *gorm.DB, id types.ID, sec *session.Session) (*domain.Template, error) {
	var t domain.Template
	// ownership misses surface as record-not-found, never as forbidden
	if err := db.Where(&domain.Template{ID: id, UserID: sec.Identity.ID}).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func loadNodes(db *gorm.DB, templateID types.ID) ([]domain.TemplateNode, *tree.Forest, error) {
	var nodes []domain.TemplateNode
	if err := db.Where(&domain.TemplateNode{TemplateID: templateID}).
		Order("`order` ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, nil, err
	}
	refs := make([]tree.Node, 0, len(nodes))
	for _, n := range nodes {
		refs = append(refs, tree.Node{ID: n.ID, ParentID: n.ParentID, Order: n.Order})
	}
	return nodes, tree.Build(refs), nil
}

func loadForest(db *gorm.DB, templateID types.ID) (*tree.Forest, error) {
	_, forest, err := loadNodes(db, templateID)
	return forest, err
}
