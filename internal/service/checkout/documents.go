package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/store"
)

// Document is an order or estimate with its status history.
type Document struct {
	*domain.Order
	Events []domain.OrderEvent `json:"events"`
}

// Get returns a document to staff or to the registered customer it belongs to. Anyone
// else gets ErrNotFound.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*Document, error) {
	var out *Document
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !canView(actor, order) {
			return domain.ErrNotFound
		}
		events, err := tx.Orders().ListEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if events == nil {
			events = []domain.OrderEvent{}
		}
		out = &Document{Order: order, Events: events}
		return nil
	})
	return out, err
}

func canView(actor domain.Actor, order *domain.Order) bool {
	if actor.IsStaff() {
		return true
	}
	userID, ok := actor.Owner.UserID()
	if !ok {
		return false
	}
	owner, ok := order.Customer.UserID()
	return ok && owner == userID
}

type TransitionInput struct {
	Status domain.DocumentStatus `json:"status"`
	Reason string                `json:"reason,omitempty"`
}

// Transition moves a document to another status and records who did it. Money fields
// are never touched.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, id string, in TransitionInput) (*Document, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	to := domain.DocumentStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, to) {
			return domain.NewValidationError("status",
				fmt.Sprintf("cannot move from %s to %s", order.Status, to))
		}
		if err := tx.Orders().UpdateStatus(ctx, id, to); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return tx.Orders().AddEvent(ctx, domain.OrderEvent{
			ID:         uuid.NewString(),
			OrderID:    id,
			Actor:      actor.Name(),
			FromStatus: order.Status,
			ToStatus:   to,
			Reason:     strings.TrimSpace(in.Reason),
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		s.logFailure("document transition failed", err)
		return nil, err
	}
	s.logger.Info("document transitioned", zap.String("order_id", id), zap.String("to", string(to)), zap.String("actor", actor.Name()))
	return s.Get(ctx, actor, id)
}
