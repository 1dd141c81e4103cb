// Package repository holds generic GORM helpers shared by the domain
// repositories.
package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// Create inserts entity. A unique constraint violation becomes conflict.
func Create[T any](ctx context.Context, db *gorm.DB, entity *T, conflict error) error {
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if conflict != nil && errors.IsDuplicateError(err) {
			return conflict
		}
		return fmt.Errorf("failed to create %T: %w", entity, err)
	}
	return nil
}

// FirstWhere loads the first row matching query, returning notFound when there
// is none.
func FirstWhere[T any](ctx context.Context, db *gorm.DB, notFound error, query string, args ...interface{}) (*T, error) {
	var entity T
	if err := db.WithContext(ctx).Where(query, args...).First(&entity).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to load %T: %w", entity, err)
	}
	return &entity, nil
}

// CountWhere counts rows of T matching query.
func CountWhere[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (int64, error) {
	var (
		count  int64
		entity T
	)
	if err := db.WithContext(ctx).Model(&entity).Where(query, args...).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %T: %w", entity, err)
	}
	return count, nil
}

// UpdateWhere applies column updates to rows of T matching query and returns
// notFound when nothing matched.
func UpdateWhere[T any](ctx context.Context, db *gorm.DB, notFound error, updates map[string]interface{}, query string, args ...interface{}) error {
	var entity T
	result := db.WithContext(ctx).Model(&entity).Where(query, args...).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update %T: %w", entity, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}
