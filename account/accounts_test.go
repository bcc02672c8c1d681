package account_test

import (
	"context"
	"testing"

	"flowplan/account"
	"flowplan/persistence"
	"flowplan/testinfra"

	. "github.com/onsi/gomega"
)

func accountTestSetup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("flowplan")
	*testDatabase = db
	Expect(db.DS.GormDB(context.Background()).AutoMigrate(&account.User{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func accountTestTeardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestHashSha256(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should hash deterministically", func(t *testing.T) {
		Expect(account.HashSha256("abc123")).To(Equal(account.HashSha256("abc123")))
		Expect(account.HashSha256("abc123")).ToNot(Equal(account.HashSha256("abc124")))
		Expect(len(account.HashSha256("abc123"))).To(Equal(64))
	})
}

func TestCreateUser(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should persist the user with a hashed secret", func(t *testing.T) {
		defer accountTestTeardown(t, testDatabase)
		accountTestSetup(t, &testDatabase)

		info, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "abc123"})
		Expect(err).To(BeNil())
		Expect(info.ID).ToNot(BeZero())
		Expect(info.Name).To(Equal("ann"))

		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		stored := account.User{}
		Expect(db.Where("name = ?", "ann").First(&stored).Error).To(BeNil())
		Expect(stored.Secret).To(Equal(account.HashSha256("abc123")))
		Expect(stored.Secret).ToNot(ContainSubstring("abc123"))
	})
}

func TestBootstrapAdminUser(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should create the default admin exactly once", func(t *testing.T) {
		defer accountTestTeardown(t, testDatabase)
		accountTestSetup(t, &testDatabase)

		Expect(account.BootstrapAdminUser()).To(BeNil())
		Expect(account.BootstrapAdminUser()).To(BeNil())

		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		var count int
		Expect(db.Model(&account.User{}).Where("name = ?", "admin").Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))
	})
}
