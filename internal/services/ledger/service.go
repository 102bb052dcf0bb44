// Package ledger moves balance: purchases against stock and top-up review.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
)

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

// Service implements LedgerService
type Service struct {
	store  interfaces.DocumentStore
	logger *common.Logger
}

// NewService creates a new ledger service
func NewService(store interfaces.DocumentStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Purchase redeems one stock token per line, front of the pool first. The
// whole purchase settles atomically: any failing line aborts everything and
// the document is left untouched.
func (s *Service) Purchase(ctx context.Context, userID string, lines []interfaces.PurchaseLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyPurchase
	}

	var order models.Order
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		user := d.UserByID(userID)
		if user == nil {
			return models.ErrUserNotFound
		}

		// Mutations below only persist if every line succeeds; an error
		// abandons the in-memory document before it is saved.
		items := make([]models.OrderItem, 0, len(lines))
		total := 0.0
		for _, line := range lines {
			product := d.ProductByID(line.ProductID)
			if product == nil || !product.Active {
				return models.ErrProductNotFound
			}
			variant, ok := product.Variants[line.Variant]
			if !ok {
				return models.ErrVariantUnknown
			}
			if len(variant.Stock) == 0 {
				return models.ErrNoStock
			}

			token := variant.Stock[0]
			variant.Stock = variant.Stock[1:]
			total += variant.Price
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Variant:   line.Variant,
				Price:     variant.Price,
				Delivered: token,
			})
		}

		if user.Balance < total {
			return models.ErrInsufficientBalance
		}
		user.Balance -= total

		order = models.Order{
			ID:     common.NewID("o"),
			UserID: userID,
			When:   time.Now().UTC(),
			Items:  items,
			Total:  total,
			Status: models.OrderStatusPaid,
		}
		d.Orders = append(d.Orders, order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user", userID).
		Str("order", order.ID).
		Float64("total", order.Total).
		Int("items", len(order.Items)).
		Msg("Purchase settled")
	return &order, nil
}

// OrdersForUser returns the user's orders, newest first.
func (s *Service) OrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0)
	for i := len(doc.Orders) - 1; i >= 0; i-- {
		if doc.Orders[i].UserID == userID {
			orders = append(orders, doc.Orders[i])
		}
	}
	return orders, nil
}

// RequestTopup files a pending top-up for admin review. Nothing is credited
// until approval.
func (s *Service) RequestTopup(ctx context.Context, userID string, amount float64, reference string) (*models.Topup, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var topup models.Topup
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		if d.UserByID(userID) == nil {
			return models.ErrUserNotFound
		}
		topup = models.Topup{
			ID:          common.NewID("t"),
			UserID:      userID,
			Amount:      amount,
			Reference:   strings.TrimSpace(reference),
			Status:      models.TopupPending,
			RequestedAt: time.Now().UTC(),
		}
		d.Topups = append(d.Topups, topup)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user", userID).
		Str("topup", topup.ID).
		Float64("amount", amount).
		Msg("Top-up requested")
	return &topup, nil
}

// ListTopups returns every top-up, newest first.
func (s *Service) ListTopups(ctx context.Context) ([]models.Topup, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	topups := make([]models.Topup, 0, len(doc.Topups))
	for i := len(doc.Topups) - 1; i >= 0; i-- {
		topups = append(topups, doc.Topups[i])
	}
	return topups, nil
}

// ApproveTopup credits the requester and closes the top-up. A top-up
// settles exactly once; re-approving or approving a rejected one fails.
func (s *Service) ApproveTopup(ctx context.Context, topupID string) (*models.Topup, error) {
	var topup models.Topup
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		t := d.TopupByID(topupID)
		if t == nil {
			return models.ErrTopupNotFound
		}
		if t.Status != models.TopupPending {
			return models.ErrTopupProcessed
		}
		user := d.UserByID(t.UserID)
		if user == nil {
			return models.ErrUserNotFound
		}
		user.Balance += t.Amount
		now := time.Now().UTC()
		t.Status = models.TopupApproved
		t.ApprovedAt = &now
		topup = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("topup", topupID).
		Float64("amount", topup.Amount).
		Msg("Top-up approved")
	return &topup, nil
}

// RejectTopup closes the top-up without crediting.
func (s *Service) RejectTopup(ctx context.Context, topupID string) (*models.Topup, error) {
	var topup models.Topup
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		t := d.TopupByID(topupID)
		if t == nil {
			return models.ErrTopupNotFound
		}
		if t.Status != models.TopupPending {
			return models.ErrTopupProcessed
		}
		now := time.Now().UTC()
		t.Status = models.TopupRejected
		t.RejectedAt = &now
		topup = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("topup", topupID).Msg("Top-up rejected")
	return &topup, nil
}
