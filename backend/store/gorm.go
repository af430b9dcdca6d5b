package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"treasurehunt/backend/models"
)

// GormRepository stores users in a SQL database through GORM.
type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}
	return &GormRepository{DB: db}, nil
}

func byUsername(db *gorm.DB, username string) *gorm.DB {
	return db.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *GormRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepository) Get(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := byUsername(r.DB.WithContext(ctx), username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := byUsername(tx.Model(&models.User{}), user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		err := tx.Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	})
}

func (r *GormRepository) Update(ctx context.Context, username string, fn func(*models.User) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := byUsername(tx.Clauses(clause.Locking{Strength: "UPDATE"}), username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
}

func (r *GormRepository) Delete(ctx context.Context, username string) error {
	res := byUsername(r.DB.WithContext(ctx), username).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
