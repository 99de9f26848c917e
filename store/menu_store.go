package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

// MenuStore owns the menu catalog: items and their customization
// templates. Price edits never rewrite historical orders; order items carry
// their own price snapshots.
type MenuStore struct {
	db *gorm.DB
}

func NewMenuStore(db *gorm.DB) *MenuStore {
	return &MenuStore{db: db}
}

// ListAvailable returns the customer-facing menu: available items ordered
// by category, templates preloaded.
func (s *MenuStore) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("available = ?", true).
		Preload("CustomizationTemplates").
		Order("category ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	return items, nil
}

// ListAll returns every item, including unavailable ones, for the admin
// dashboard.
func (s *MenuStore) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Preload("CustomizationTemplates").
		Order("category ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	return items, nil
}

func (s *MenuStore) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).Preload("CustomizationTemplates").First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: menu item %s", models.ErrNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads the given menu items in one query. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (s *MenuStore) FindByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}

func (s *MenuStore) Create(ctx context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// MenuItemUpdate carries optional field updates; nil means leave unchanged.
type MenuItemUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Available   *bool
}

func (s *MenuStore) Update(ctx context.Context, id string, upd MenuItemUpdate) (*models.MenuItem, error) {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Price != nil {
		if upd.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", models.ErrValidation)
		}
		updates["price"] = *upd.Price
	}
	if upd.Category != nil {
		updates["category"] = *upd.Category
	}
	if upd.Available != nil {
		updates["available"] = *upd.Available
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: menu item %s", models.ErrNotFound, id)
		}
	}
	return s.Get(ctx, id)
}

func (s *MenuStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.CustomizationTemplate{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.MenuItem{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: menu item %s", models.ErrNotFound, id)
		}
		return nil
	})
}

// Customization template catalog.

func (s *MenuStore) ListCustomizations(ctx context.Context, menuItemID string) ([]models.CustomizationTemplate, error) {
	var templates []models.CustomizationTemplate
	err := s.db.WithContext(ctx).
		Where("menu_item_id = ?", menuItemID).
		Order("created_at ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []models.CustomizationTemplate{}
	}
	return templates, nil
}

func (s *MenuStore) AddCustomization(ctx context.Context, tmpl *models.CustomizationTemplate) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", tmpl.MenuItemID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: menu item %s", models.ErrNotFound, tmpl.MenuItemID)
	}
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(tmpl).Error
}

type CustomizationUpdate struct {
	Type  *string
	Name  *string
	Price *decimal.Decimal
}

func (s *MenuStore) UpdateCustomization(ctx context.Context, id string, upd CustomizationUpdate) (*models.CustomizationTemplate, error) {
	updates := map[string]interface{}{}
	if upd.Type != nil {
		updates["type"] = *upd.Type
	}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Price != nil {
		updates["price"] = *upd.Price
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.CustomizationTemplate{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: customization %s", models.ErrNotFound, id)
		}
	}

	var tmpl models.CustomizationTemplate
	if err := s.db.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customization %s", models.ErrNotFound, id)
		}
		return nil, err
	}
	return &tmpl, nil
}

func (s *MenuStore) DeleteCustomization(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.CustomizationTemplate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: customization %s", models.ErrNotFound, id)
	}
	return nil
}
