package dbhelper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/ray-remotestate/tabletap/database"
	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/orders"
)

// OrderStore satisfies orders.Store over the shared pool. No other code
// writes to orders or order_items.
type OrderStore struct{}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanOrder reads the canonical order column list; table_id is nullable.
func scanOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	var tableID uuid.NullUUID
	err := row.Scan(&o.ID, &tableID, &o.RestaurantID, &o.Submitted, &o.Completed, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	if tableID.Valid {
		o.TableID = &tableID.UUID
	}
	return o, nil
}

func (OrderStore) CreateOrder(ctx context.Context, tableID, restaurantID uuid.UUID) (models.Order, error) {
	return scanOrder(database.TableTap.QueryRowContext(ctx, `
		INSERT INTO orders (table_id, restaurant_id)
		VALUES ($1, $2)
		RETURNING id, table_id, restaurant_id, submitted, completed, total, created_at, updated_at`,
		tableID, restaurantID))
}

func (OrderStore) GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	o, err := scanOrder(database.TableTap.QueryRowContext(ctx, `
		SELECT id, table_id, restaurant_id, submitted, completed, total, created_at, updated_at
		FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, orders.ErrNotFound
	}
	return o, err
}

// AddLine locks the order row, rejects closed orders, merges the quantity
// into an existing line (keeping its price snapshot) or inserts a new line
// with the current price, and bumps the running total. One transaction so
// two concurrent adds cannot duplicate a line or misstate the total.
func (OrderStore) AddLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int, unitPrice float64) (models.Order, error) {
	var o models.Order
	txErr := database.Tx(func(tx *sql.Tx) error {
		var submitted, completed bool
		err := tx.QueryRowContext(ctx, `
			SELECT submitted, completed FROM orders WHERE id = $1 FOR UPDATE`, orderID).
			Scan(&submitted, &completed)
		if errors.Is(err, sql.ErrNoRows) {
			return orders.ErrNotFound
		}
		if err != nil {
			return err
		}
		if submitted || completed {
			return orders.ErrOrderClosed
		}

		// On merge the existing snapshot wins; RETURNING hands back
		// whichever price the line ended up with.
		var chargedPrice float64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (order_id, item_id)
			DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
			RETURNING unit_price`, orderID, itemID, quantity, unitPrice).
			Scan(&chargedPrice)
		if err != nil {
			return err
		}

		o, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders
			SET total = total + $2, updated_at = now()
			WHERE id = $1
			RETURNING id, table_id, restaurant_id, submitted, completed, total, created_at, updated_at`,
			orderID, float64(quantity)*chargedPrice))
		return err
	})
	if txErr != nil {
		return models.Order{}, txErr
	}
	return o, nil
}

func (OrderStore) Lines(ctx context.Context, orderID uuid.UUID) ([]models.CartLine, error) {
	rows, err := database.TableTap.QueryContext(ctx, `
		SELECT oi.item_id, mi.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY mi.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		l.LineTotal = float64(l.Quantity) * l.UnitPrice
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Submit is conditional on the order still being open, which makes repeat
// submits harmless.
func (OrderStore) Submit(ctx context.Context, orderID uuid.UUID) error {
	_, err := database.TableTap.ExecContext(ctx, `
		UPDATE orders SET submitted = TRUE, updated_at = now()
		WHERE id = $1 AND NOT submitted`, orderID)
	return err
}

func (OrderStore) ListPending(ctx context.Context, restaurantIDs []uuid.UUID) ([]models.Order, error) {
	return ListPendingByRestaurants(ctx, restaurantIDs)
}

// Complete is a compare-and-set: only a submitted, not yet completed order
// transitions. Zero rows affected means the caller raced or skipped a state.
func (OrderStore) Complete(ctx context.Context, orderID uuid.UUID) error {
	res, err := database.TableTap.ExecContext(ctx, `
		UPDATE orders SET completed = TRUE, updated_at = now()
		WHERE id = $1 AND submitted AND NOT completed`, orderID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return orders.ErrInvalidTransition
	}
	return nil
}
