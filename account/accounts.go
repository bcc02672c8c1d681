package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"flowplan/common"
	"flowplan/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc = CreateUser
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func CreateUser(c *UserCreation) (*UserInfo, error) {
	user := User{ID: common.NextId(userIdWorker), Name: c.Name, Secret: HashSha256(c.Secret),
		CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(context.Background()).Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name}, nil
}

// BootstrapAdminUser creates the default admin account on first start.
// ADMIN_NAME/ADMIN_SECRET override the defaults.
func BootstrapAdminUser() error {
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "admin"
	}
	secret := os.Getenv("ADMIN_SECRET")
	if secret == "" {
		secret = "admin123"
	}

	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	var existing User
	err := db.Where(&User{Name: name}).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	_, err = CreateUser(&UserCreation{Name: name, Secret: secret})
	return err
}
