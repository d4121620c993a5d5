package repository

import (
	"context"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// FindByTag matches the branch exactly; a nil branch selects the company-wide account.
	FindByTag(ctx context.Context, tag string, branchID *uuid.UUID) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return translateError(GetDB(ctx, r.db).Create(account).Error)
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByTag(ctx context.Context, tag string, branchID *uuid.UUID) (*model.Account, error) {
	var account model.Account
	db := GetDB(ctx, r.db).Where("tag = ? AND is_active = ?", tag, true)
	if branchID == nil {
		db = db.Where("branch_id IS NULL")
	} else {
		db = db.Where("branch_id = ?", *branchID)
	}
	if err := db.Order("code ASC").First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := GetDB(ctx, r.db).Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, translateError(err)
	}
	return accounts, nil
}
