package credential

import (
	"context"

	"flowplan/bizerror"
	"flowplan/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	SetApiKeyFunc       = SetApiKey
	GetDecryptedKeyFunc = GetDecryptedKey
	HasApiKeyFunc       = HasApiKey
)

// ApiKeyRecord stores one user's AI provider key, encrypted at rest.
type ApiKeyRecord struct {
	UserID types.ID `json:"userId" gorm:"primary_key"`
	Cipher string   `json:"-" sql:"type:TEXT"`

	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *ApiKeyRecord) TableName() string {
	return "ai_api_keys"
}

func SetApiKey(userID types.ID, plainKey string) error {
	cipherText, err := Encrypt(plainKey)
	if err != nil {
		return err
	}
	record := ApiKeyRecord{UserID: userID, Cipher: cipherText, UpdateTime: types.CurrentTimestamp()}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ApiKeyRecord{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
}

// GetDecryptedKey returns the caller's provider key, or ErrCredentialMissing
// when no key is on file. Raw ciphertext never leaves this package.
func GetDecryptedKey(userID types.ID) (string, error) {
	var record ApiKeyRecord
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", bizerror.ErrCredentialMissing
		}
		return "", err
	}
	if record.Cipher == "" {
		return "", bizerror.ErrCredentialMissing
	}
	plain, err := Decrypt(record.Cipher)
	if err != nil {
		return "", err
	}
	return plain, nil
}

func HasApiKey(userID types.ID) (bool, error) {
	_, err := GetDecryptedKeyFunc(userID)
	if err == bizerror.ErrCredentialMissing {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
