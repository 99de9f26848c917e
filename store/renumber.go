package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

// Renumber moves an order to newNumber. With adjustSubsequent the orders
// between the old and new positions shift one slot toward the vacated one,
// so the overall set of order numbers is preserved: renumbering #2 to 4 in
// [1..5] leaves {1,2,3,4,5}, with the old 3 and 4 becoming 2 and 3.
//
// Everything runs in one transaction. The target first parks on a negative
// sentinel number, then the block shifts row by row in an order that never
// collides with the live unique index (ascending when shifting down,
// descending when shifting up), and finally the target takes newNumber.
//
// Without adjustSubsequent the target's number is set directly; a collision
// with an existing order is rejected rather than silently creating a
// duplicate number.
func (s *OrderStore) Renumber(ctx context.Context, orderID string, newNumber int, adjustSubsequent bool) (*models.Order, error) {
	if newNumber < 1 {
		return nil, fmt.Errorf("%w: order number must be positive, got %d", models.ErrValidation, newNumber)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Order
		if err := tx.First(&target, "id = ?", orderID).Error; err != nil {
			return translateNotFound(err, orderID)
		}

		oldNumber := target.OrderNumber
		if newNumber == oldNumber {
			return nil
		}

		if !adjustSubsequent {
			var clashes int64
			err := tx.Model(&models.Order{}).
				Where("order_number = ? AND id <> ?", newNumber, orderID).
				Count(&clashes).Error
			if err != nil {
				return err
			}
			if clashes > 0 {
				return fmt.Errorf("%w: %d", models.ErrConstraint, newNumber)
			}
			return setNumber(tx, orderID, newNumber)
		}

		// Park the target out of the way so its old slot is free for
		// the shifting block.
		if err := setNumber(tx, orderID, -oldNumber); err != nil {
			return err
		}

		if newNumber > oldNumber {
			// Target moves up: (old, new] shift down one, lowest first.
			var block []models.Order
			err := tx.Where("order_number > ? AND order_number <= ?", oldNumber, newNumber).
				Order("order_number ASC").
				Find(&block).Error
			if err != nil {
				return err
			}
			for _, o := range block {
				if err := setNumber(tx, o.ID, o.OrderNumber-1); err != nil {
					return err
				}
			}
		} else {
			// Target moves down: [new, old) shift up one, highest first.
			var block []models.Order
			err := tx.Where("order_number >= ? AND order_number < ?", newNumber, oldNumber).
				Order("order_number DESC").
				Find(&block).Error
			if err != nil {
				return err
			}
			for _, o := range block {
				if err := setNumber(tx, o.ID, o.OrderNumber+1); err != nil {
					return err
				}
			}
		}

		return setNumber(tx, orderID, newNumber)
	})
	if err != nil {
		if isDuplicateOrderNumber(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrConstraint, err)
		}
		return nil, err
	}
	return s.FindByID(ctx, orderID)
}

func setNumber(tx *gorm.DB, orderID string, number int) error {
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Update("order_number", number).Error
}
