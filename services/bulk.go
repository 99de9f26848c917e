package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

// CompleteThroughResult reports what a bulk completion actually did before
// stopping.
type CompleteThroughResult struct {
	CompletedIDs []string `json:"completed_ids"`
}

// CompleteThrough is the kitchen's "mark all up to here": every PENDING or
// PREPARING order at or before the target in the FIFO active list is walked
// forward through the state machine to COMPLETED. READY orders in the range
// are left alone; they complete through the normal per-order flow.
//
// Each step is an individual status transition (with its own events), not
// one atomic batch. A failure partway through stops further processing but
// keeps everything already completed, and the caller gets the list of what
// succeeded alongside the error.
func (s *OrderService) CompleteThrough(ctx context.Context, caller Identity, targetID string) (CompleteThroughResult, error) {
	result := CompleteThroughResult{CompletedIDs: []string{}}

	active, err := s.KitchenOrders(ctx)
	if err != nil {
		return result, err
	}

	var batch []models.Order
	found := false
	for _, order := range active {
		batch = append(batch, order)
		if order.ID == targetID {
			found = true
			break
		}
	}
	if !found {
		return result, fmt.Errorf("%w: order %s is not in the active queue", models.ErrNotFound, targetID)
	}

	for _, order := range batch {
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusPreparing {
			continue
		}
		if err := s.completeOrder(ctx, caller, order); err != nil {
			s.logger.Warn("bulk completion stopped",
				zap.String("order_id", order.ID),
				zap.Int("completed", len(result.CompletedIDs)),
				zap.Error(err))
			return result, err
		}
		result.CompletedIDs = append(result.CompletedIDs, order.ID)
	}

	s.logger.Info("bulk completion finished",
		zap.String("through_order_id", targetID),
		zap.Int("completed", len(result.CompletedIDs)))
	return result, nil
}

// completeOrder steps one order forward until COMPLETED. The state machine
// has no shortcut transitions, so a PENDING order passes through PREPARING
// and READY on the way.
func (s *OrderService) completeOrder(ctx context.Context, caller Identity, order models.Order) error {
	steps := map[models.OrderStatus]models.OrderStatus{
		models.OrderStatusPending:   models.OrderStatusPreparing,
		models.OrderStatusPreparing: models.OrderStatusReady,
		models.OrderStatusReady:     models.OrderStatusCompleted,
	}

	current := order.Status
	for current != models.OrderStatusCompleted {
		next, ok := steps[current]
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrInvalidTransition, current)
		}
		updated, err := s.TransitionStatus(ctx, caller, order.ID, next)
		if err != nil {
			return err
		}
		current = updated.Status
	}
	return nil
}
