package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID                     string                  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name                   string                  `json:"name" gorm:"not null"`
	Description            string                  `json:"description"`
	Price                  decimal.Decimal         `json:"price" gorm:"type:decimal(10,2);not null"`
	Category               string                  `json:"category" gorm:"index"`
	Available              bool                    `json:"available" gorm:"not null;default:true"`
	CustomizationTemplates []CustomizationTemplate `json:"customization_templates,omitempty" gorm:"foreignKey:MenuItemID"`
	CreatedAt              time.Time               `json:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
}

// CustomizationTemplate is the per-item catalog of selectable customizations.
// Orders never reference templates by foreign key; an order stores its own
// denormalized copy so later template edits don't rewrite history.
type CustomizationTemplate struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MenuItemID string          `json:"menu_item_id" gorm:"type:varchar(36);not null;index"`
	Type       string          `json:"type" gorm:"not null"`
	Name       string          `json:"name" gorm:"not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
