// Package orders owns the cart lifecycle: one open order per table session,
// quantity-merging line items, a maintained running total, and the
// open -> submitted -> completed state machine.
package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/sessions"
)

// Catalog is the read-only slice of the menu world the cart needs.
type Catalog interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (models.MenuItem, error)
	GetTable(ctx context.Context, tableID uuid.UUID) (models.Table, error)
}

// Store persists order aggregates. AddLine and Complete are the two
// serialization points: AddLine runs merge+total as one transaction holding
// the order row, Complete is a compare-and-set on the submitted flag.
type Store interface {
	CreateOrder(ctx context.Context, tableID, restaurantID uuid.UUID) (models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error)
	AddLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int, unitPrice float64) (models.Order, error)
	Lines(ctx context.Context, orderID uuid.UUID) ([]models.CartLine, error)
	Submit(ctx context.Context, orderID uuid.UUID) error
	ListPending(ctx context.Context, restaurantIDs []uuid.UUID) ([]models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) error
}

// Authorizer answers the single owner capability question used by every
// owner-facing operation.
type Authorizer interface {
	OwnsRestaurant(ctx context.Context, ownerID, restaurantID uuid.UUID) (bool, error)
	RestaurantsOwnedBy(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}

type Service struct {
	catalog Catalog
	store   Store
	authz   Authorizer
	binder  sessions.Store
}

func NewService(catalog Catalog, store Store, authz Authorizer, binder sessions.Store) *Service {
	return &Service{
		catalog: catalog,
		store:   store,
		authz:   authz,
		binder:  binder,
	}
}

// Cart is the customer view of an order aggregate.
type Cart struct {
	Order models.Order      `json:"order"`
	Lines []models.CartLine `json:"lines"`
}

// AddItem merges quantity of itemID into the session's open order, creating
// the order on first add. An existing open binding wins: tableID is only
// consulted when there is no usable bound order. A submitted order is never
// touched; the store's locked guard turns a lost race with Submit into
// ErrOrderClosed.
func (s *Service) AddItem(ctx context.Context, token string, tableID, itemID uuid.UUID, quantity int) (models.Order, error) {
	if quantity <= 0 {
		return models.Order{}, ErrInvalidQuantity
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return models.Order{}, err
	}

	order, err := s.resolveOrCreate(ctx, token, tableID)
	if err != nil {
		return models.Order{}, err
	}

	updated, err := s.store.AddLine(ctx, order.ID, item.ID, quantity, item.Price)
	if err != nil {
		return models.Order{}, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"item_id":  item.ID,
		"quantity": quantity,
		"total":    updated.Total,
	}).Debug("added item to order")

	return updated, nil
}

// ViewCart returns the bound order with its lines. Line totals use the unit
// price snapshotted at add time, so the cart a customer submitted is the
// cart the owner sees regardless of later menu edits.
func (s *Service) ViewCart(ctx context.Context, token string) (Cart, error) {
	order, err := s.boundOrder(ctx, token)
	if err != nil {
		return Cart{}, err
	}

	lines, err := s.store.Lines(ctx, order.ID)
	if err != nil {
		return Cart{}, err
	}

	return Cart{Order: order, Lines: lines}, nil
}

// Submit moves the bound order to submitted. Submitting twice is a no-op,
// not an error; the binding stays so the customer can still view the
// submitted cart, and dies the next time they add an item (see
// resolveOrCreate) or when it expires.
func (s *Service) Submit(ctx context.Context, token string) (models.Order, error) {
	order, err := s.boundOrder(ctx, token)
	if err != nil {
		return models.Order{}, err
	}

	if !order.Submitted {
		if err := s.store.Submit(ctx, order.ID); err != nil {
			return models.Order{}, err
		}
		order.Submitted = true
		logrus.WithField("order_id", order.ID).Info("order submitted")
	}

	return order, nil
}

// ListPending returns submitted, not yet completed orders across every
// restaurant the owner manages, oldest first.
func (s *Service) ListPending(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	restaurantIDs, err := s.authz.RestaurantsOwnedBy(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(restaurantIDs) == 0 {
		return nil, nil
	}
	return s.store.ListPending(ctx, restaurantIDs)
}

// OrderDetail is the console's line view of one order, gated by the owner
// capability check.
func (s *Service) OrderDetail(ctx context.Context, ownerID, orderID uuid.UUID) (Cart, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Cart{}, err
	}

	if err := s.authorize(ctx, ownerID, order.RestaurantID); err != nil {
		return Cart{}, err
	}

	lines, err := s.store.Lines(ctx, order.ID)
	if err != nil {
		return Cart{}, err
	}
	return Cart{Order: order, Lines: lines}, nil
}

// Complete moves a submitted order to completed. The store write is
// conditional on the current state, so a concurrent duplicate call loses and
// surfaces ErrInvalidTransition.
func (s *Service) Complete(ctx context.Context, ownerID, orderID uuid.UUID) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, ownerID, order.RestaurantID); err != nil {
		return err
	}

	if err := s.store.Complete(ctx, orderID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"owner_id": ownerID,
	}).Info("order completed")
	return nil
}

func (s *Service) authorize(ctx context.Context, ownerID, restaurantID uuid.UUID) error {
	owns, err := s.authz.OwnsRestaurant(ctx, ownerID, restaurantID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrForbidden
	}
	return nil
}

func (s *Service) boundOrder(ctx context.Context, token string) (models.Order, error) {
	orderID, ok, err := s.binder.Get(ctx, token)
	if err != nil {
		return models.Order{}, err
	}
	if !ok {
		return models.Order{}, ErrNoActiveOrder
	}
	return s.store.GetOrder(ctx, orderID)
}

// resolveOrCreate returns the session's open order, or opens a new one when
// the session is unbound or its bound order has been submitted. A submitted
// order is never mutated again; a new visit on the same table simply starts
// a new order.
func (s *Service) resolveOrCreate(ctx context.Context, token string, tableID uuid.UUID) (models.Order, error) {
	orderID, ok, err := s.binder.Get(ctx, token)
	if err != nil {
		return models.Order{}, err
	}
	if ok {
		order, err := s.store.GetOrder(ctx, orderID)
		if err == nil && order.Status() == models.StatusOpen {
			return order, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return models.Order{}, err
		}
		if err := s.binder.Clear(ctx, token); err != nil {
			return models.Order{}, err
		}
	}

	table, err := s.catalog.GetTable(ctx, tableID)
	if err != nil {
		return models.Order{}, err
	}

	order, err := s.store.CreateOrder(ctx, table.ID, table.RestaurantID)
	if err != nil {
		return models.Order{}, err
	}

	if err := s.binder.Bind(ctx, token, order.ID); err != nil {
		return models.Order{}, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"table_id": table.ID,
	}).Debug("opened order for table session")
	return order, nil
}
