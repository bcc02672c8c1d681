package run

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

	QueryRunsFunc  = QueryRuns
	CreateRunFunc  = CreateRun
	DetailRunFunc  = DetailRun
	UpdateRunFunc  = UpdateRun
	DeleteRunFunc  = DeleteRun
	UpdateItemFunc = UpdateItem
)

type RunCreation struct {
	TemplateID types.ID     `json:"templateId" binding:"required"`
	DueDate    *domain.Date `json:"dueDate" binding:"required"`
	Title      string       `json:"title"`
}

type RunUpdate struct {
	Title   *string                `json:"title"`
	Status  *domain.WorkflowStatus `json:"status"`
	DueDate *domain.Date           `json:"dueDate"`
}

type ItemTreeView struct {
	ID            types.ID          `json:"id"`
	Title         string            `json:"title"`
	Order         int               `json:"order"`
	Status        domain.ItemStatus `json:"status"`
	DueDate       *domain.Date      `json:"dueDate"`
	DueOffsetDays int               `json:"dueOffsetDays"`
	Children      []ItemTreeView    `json:"children"`
}

type RunDetail struct {
	domain.Workflow

	Items []ItemTreeView `json:"items"`
}

func QueryRuns(sec *session.Session) ([]domain.Workflow, error) {
	var runs []domain.Workflow
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.Workflow{UserID: sec.Identity.ID}).
		Order("status ASC, due_date ASC, create_time DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// CreateRun clones the template's node tree into a new run. The whole clone is
// one transaction: no run with a partial item tree is ever observable.
func CreateRun(c *RunCreation, sec *session.Session) (*domain.Workflow, error) {
	var run *domain.Workflow
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		var err error
		run, err = CreateRunInTx(tx, c, sec)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return run, nil
}

// CreateRunInTx is the instantiation engine proper, reusable inside a caller
// owned transaction (the agent materializes template and run in one unit).
func CreateRunInTx(tx *gorm.DB, c *RunCreation, sec *session.Session) (*domain.Workflow, error) {
	var t domain.Template
	if err := tx.Where(&domain.Template{ID: c.TemplateID, UserID: sec.Identity.ID}).First(&t).Error; err != nil {
		return nil, err
	}

	var nodes []domain.TemplateNode
	if err := tx.Where(&domain.TemplateNode{TemplateID: t.ID}).
		Order("`order` ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	refs := make([]tree.Node, 0, len(nodes))
	index := map[types.ID]domain.TemplateNode{}
	for _, n := range nodes {
		refs = append(refs, tree.Node{ID: n.ID, ParentID: n.ParentID, Order: n.Order})
		index[n.ID] = n
	}
	forest := tree.Build(refs)
	if forest.Depth() > tree.MaxDepth {
		return nil, bizerror.ErrTooDeep
	}

	title := c.Title
	if title == "" {
		title = t.Title
	}
	anchor := *c.DueDate
	run := domain.Workflow{
		ID:         common.NextId(idWorker),
		UserID:     sec.Identity.ID,
		TemplateID: t.ID,
		Title:      title,
		DueDate:    anchor,
		Status:     domain.WorkflowStatusActive,
		CreateTime: types.CurrentTimestamp(),
	}
	if err := tx.Create(&run).Error; err != nil {
		return nil, err
	}

	// depth-first pre-order clone, remapping node ids to new item ids
	itemIds := map[types.ID]types.ID{}
	err := forest.Walk(func(id, parentID types.ID) error {
		n := index[id]
		item := domain.WorkflowItem{
			ID:            common.NextId(idWorker),
			WorkflowID:    run.ID,
			Title:         n.Title,
			Order:         n.Order,
			Status:        domain.ItemStatusTodo,
			DueOffsetDays: n.DueOffsetDays,
		}
		if parentID != 0 {
			item.ParentID = itemIds[parentID]
		}
		// offset 0 means "no explicit deadline" in the source data model,
		// not "due on the anchor date"
		if n.DueOffsetDays != 0 {
			due := anchor.AddDays(-n.DueOffsetDays)
			item.DueDate = &due
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		itemIds[id] = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := event.CreateEvent("WORKFLOW", run.ID, run.Title, event.EventCategoryCreated,
		nil, &sec.Identity, tx); err != nil {
		return nil, err
	}
	return &run, nil
}

func DetailRun(id types.ID, sec *session.Session) (*RunDetail, error) {
	detail := RunDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		run, err := findRun(tx, id, sec)
		if err != nil {
			return err
		}
		detail.Workflow = *run

		var items []domain.WorkflowItem
		if err := tx.Where(&domain.WorkflowItem{WorkflowID: run.ID}).
			Order("`order` ASC, id ASC").Find(&items).Error; err != nil {
			return err
		}
		refs := make([]tree.Node, 0, len(items))
		index := map[types.ID]domain.WorkflowItem{}
		for _, i := range items {
			refs = append(refs, tree.Node{ID: i.ID, ParentID: i.ParentID, Order: i.Order})
			index[i.ID] = i
		}
		forest := tree.Build(refs)

		var render func(id types.ID) ItemTreeView
		render = func(id types.ID) ItemTreeView {
			i := index[id]
			view := ItemTreeView{ID: i.ID, Title: i.Title, Order: i.Order, Status: i.Status,
				DueDate: i.DueDate, DueOffsetDays: i.DueOffsetDays, Children: []ItemTreeView{}}
			for _, child := range forest.Children(id) {
				view.Children = append(view.Children, render(child))
			}
			return view
		}
		detail.Items = []ItemTreeView{}
		for _, root := range forest.Roots() {
			detail.Items = append(detail.Items, render(root))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return &detail, nil
}

// UpdateRun applies a partial update to the run's own fields. Status moves
// are unrestricted.
func UpdateRun(id types.ID, u *RunUpdate, sec *session.Session) (*domain.Workflow, error) {
	if u.Status != nil && !u.Status.IsValid() {
		return nil, &bizerror.ErrBadParam{Cause: errInvalidStatus(string(*u.Status))}
	}

	var updated domain.Workflow
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		run, err := findRun(tx, id, sec)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if u.Title != nil {
			updates["title"] = *u.Title
		}
		if u.Status != nil {
			updates["status"] = *u.Status
		}
		if u.DueDate != nil {
			updates["due_date"] = *u.DueDate
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Workflow{}).Where("id = ?", run.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", run.ID).First(&updated).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return &updated, nil
}

func DeleteRun(id types.ID, sec *session.Session) error {
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		run, err := findRun(tx, id, sec)
		if err != nil {
			return err
		}
		if err := tx.Delete(&domain.WorkflowItem{}, "workflow_id = ?", run.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Workflow{}, "id = ?", run.ID).Error; err != nil {
			return err
		}
		ev, err = event.CreateEvent("WORKFLOW", run.ID, run.Title, event.EventCategoryDeleted, nil, &sec.Identity, tx)
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

func findRun(db *gorm.DB, id types.ID, sec *session.Session) (*domain.Workflow, error) {
	var run domain.Workflow
	// ownership misses surface as record-not-found, never as forbidden
	if err := db.Where(&domain.Workflow{ID: id, UserID: sec.Identity.ID}).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
