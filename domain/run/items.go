package run

import (
	"context"
	"errors"

	"flowplan/bizerror"
	"flowplan/domain"
	"flowplan/event"
	"flowplan/persistence"
	"flowplan/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// OptionalDate distinguishes an absent field from an explicit null
// (which clears the stored date).
type OptionalDate struct {
	Set  bool
	Date *domain.Date
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		return nil
	}
	d := domain.Date{}
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Date = &d
	return nil
}

type ItemUpdate struct {
	Title   *string            `json:"title"`
	Status  *domain.ItemStatus `json:"status"`
	Order   *int               `json:"order"`
	DueDate OptionalDate       `json:"dueDate"`
}

// UpdateItem applies a partial update to one run item. Unspecified fields are
// unchanged. Status moves are unrestricted and nothing cascades between
// parents and children; that permissiveness is the intended behavior.
func UpdateItem(id types.ID, u *ItemUpdate, sec *session.Session) (*domain.WorkflowItem, error) {
	if u.Status != nil && !u.Status.IsValid() {
		return nil, &bizerror.ErrBadParam{Cause: errInvalidStatus(string(*u.Status))}
	}

	var updated domain.WorkflowItem
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		var item domain.WorkflowItem
		if err := tx.Where("id = ?", id).First(&item).Error; err != nil {
			return err
		}
		// items carry no owner; authorization goes through the run
		run, err := findRun(tx, item.WorkflowID, sec)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		changes := []event.UpdatedProperty{}
		if u.Title != nil {
			updates["title"] = *u.Title
			changes = append(changes, event.UpdatedProperty{PropertyName: "title", OldValue: item.Title, NewValue: *u.Title})
		}
		if u.Status != nil {
			updates["status"] = *u.Status
			changes = append(changes, event.UpdatedProperty{PropertyName: "status", OldValue: string(item.Status), NewValue: string(*u.Status)})
		}
		if u.Order != nil {
			updates["order"] = *u.Order
		}
		if u.DueDate.Set {
			if u.DueDate.Date == nil {
				updates["due_date"] = nil
			} else {
				updates["due_date"] = *u.DueDate.Date
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.WorkflowItem{}).Where("id = ?", item.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id = ?", item.ID).First(&updated).Error; err != nil {
			return err
		}

		if len(changes) > 0 {
			ev, err = event.CreateEvent("WORKFLOW_ITEM", item.ID, run.Title+"/"+item.Title,
				event.EventCategoryPropertyUpdated, changes, &sec.Identity, tx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	if event.InvokeHandlersFunc != nil && ev != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

func errInvalidStatus(value string) error {
	return errors.New("invalid status '" + value + "'")
}
