package dbhelper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ray-remotestate/tabletap/database"
	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/orders"
)

// CatalogStore satisfies orders.Catalog and orders.Authorizer over the
// shared pool. The cart logic only ever reads the catalog.
type CatalogStore struct{}

func (CatalogStore) GetItem(ctx context.Context, itemID uuid.UUID) (models.MenuItem, error) {
	var item models.MenuItem
	err := database.TableTap.QueryRowContext(ctx, `
		SELECT id, category_id, name, description, price, is_available, created_at
		FROM menu_items
		WHERE id = $1 AND is_available`, itemID).
		Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description, &item.Price, &item.IsAvailable, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MenuItem{}, orders.ErrNotFound
	}
	return item, err
}

func (CatalogStore) GetTable(ctx context.Context, tableID uuid.UUID) (models.Table, error) {
	var table models.Table
	err := database.TableTap.QueryRowContext(ctx, `
		SELECT id, restaurant_id, number FROM tables WHERE id = $1`, tableID).
		Scan(&table.ID, &table.RestaurantID, &table.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Table{}, orders.ErrNotFound
	}
	return table, err
}

func (CatalogStore) OwnsRestaurant(ctx context.Context, ownerID, restaurantID uuid.UUID) (bool, error) {
	var owns bool
	err := database.TableTap.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM restaurant_owners
			WHERE owner_id = $1 AND restaurant_id = $2
		)`, ownerID, restaurantID).Scan(&owns)
	return owns, err
}

func (CatalogStore) RestaurantsOwnedBy(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := database.TableTap.QueryContext(ctx, `
		SELECT restaurant_id FROM restaurant_owners WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func CreateRestaurant(ownerID uuid.UUID, name, description string, tableCount int) (uuid.UUID, error) {
	var id uuid.UUID
	txErr := database.Tx(func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO restaurants (name, description, table_count)
			VALUES ($1, $2, $3)
			RETURNING id`, name, description, tableCount).Scan(&id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO restaurant_owners (owner_id, restaurant_id)
			VALUES ($1, $2)`, ownerID, id)
		return err
	})
	return id, txErr
}

func GetRestaurant(restaurantID uuid.UUID) (models.Restaurant, error) {
	var r models.Restaurant
	err := database.TableTap.QueryRow(`
		SELECT id, name, description, table_count, created_at
		FROM restaurants WHERE id = $1`, restaurantID).
		Scan(&r.ID, &r.Name, &r.Description, &r.TableCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Restaurant{}, orders.ErrNotFound
	}
	return r, err
}

func ListRestaurantsByOwner(ownerID uuid.UUID) ([]models.Restaurant, error) {
	rows, err := database.TableTap.Query(`
		SELECT r.id, r.name, r.description, r.table_count, r.created_at
		FROM restaurants r
		JOIN restaurant_owners ro ON ro.restaurant_id = r.id
		WHERE ro.owner_id = $1
		ORDER BY r.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.TableCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

func CreateMenu(restaurantID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.TableTap.QueryRow(`
		INSERT INTO menus (restaurant_id, name) VALUES ($1, $2) RETURNING id`,
		restaurantID, name).Scan(&id)
	return id, err
}

func ListMenus(restaurantID uuid.UUID) ([]models.Menu, error) {
	rows, err := database.TableTap.Query(`
		SELECT id, restaurant_id, name, created_at
		FROM menus WHERE restaurant_id = $1
		ORDER BY created_at`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var menus []models.Menu
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.CreatedAt); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

func GetMenu(menuID uuid.UUID) (models.Menu, error) {
	var m models.Menu
	err := database.TableTap.QueryRow(`
		SELECT id, restaurant_id, name, created_at FROM menus WHERE id = $1`, menuID).
		Scan(&m.ID, &m.RestaurantID, &m.Name, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Menu{}, orders.ErrNotFound
	}
	return m, err
}

func CreateCategory(menuID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.TableTap.QueryRow(`
		INSERT INTO menu_categories (menu_id, name) VALUES ($1, $2) RETURNING id`,
		menuID, name).Scan(&id)
	return id, err
}

func ListCategories(menuID uuid.UUID) ([]models.MenuCategory, error) {
	rows, err := database.TableTap.Query(`
		SELECT id, menu_id, name, created_at
		FROM menu_categories WHERE menu_id = $1
		ORDER BY created_at`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.MenuCategory
	for rows.Next() {
		var c models.MenuCategory
		if err := rows.Scan(&c.ID, &c.MenuID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func GetCategory(categoryID uuid.UUID) (models.MenuCategory, error) {
	var c models.MenuCategory
	err := database.TableTap.QueryRow(`
		SELECT id, menu_id, name, created_at FROM menu_categories WHERE id = $1`, categoryID).
		Scan(&c.ID, &c.MenuID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MenuCategory{}, orders.ErrNotFound
	}
	return c, err
}

func CreateMenuItem(categoryID uuid.UUID, name, description string, price float64) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.TableTap.QueryRow(`
		INSERT INTO menu_items (category_id, name, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, categoryID, name, description, price).Scan(&id)
	return id, err
}

func ListMenuItems(categoryID uuid.UUID) ([]models.MenuItem, error) {
	rows, err := database.TableTap.Query(`
		SELECT id, category_id, name, description, price, is_available, created_at
		FROM menu_items WHERE category_id = $1
		ORDER BY created_at`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var i models.MenuItem
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.Price, &i.IsAvailable, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// FirstMenu and FirstCategory are the explicit default-selection policy:
// when a request names no menu or category, the earliest-created one wins.

func FirstMenu(restaurantID uuid.UUID) (models.Menu, error) {
	var m models.Menu
	err := database.TableTap.QueryRow(`
		SELECT id, restaurant_id, name, created_at
		FROM menus WHERE restaurant_id = $1
		ORDER BY created_at LIMIT 1`, restaurantID).
		Scan(&m.ID, &m.RestaurantID, &m.Name, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Menu{}, orders.ErrNotFound
	}
	return m, err
}

func FirstCategory(menuID uuid.UUID) (models.MenuCategory, error) {
	var c models.MenuCategory
	err := database.TableTap.QueryRow(`
		SELECT id, menu_id, name, created_at
		FROM menu_categories WHERE menu_id = $1
		ORDER BY created_at LIMIT 1`, menuID).
		Scan(&c.ID, &c.MenuID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MenuCategory{}, orders.ErrNotFound
	}
	return c, err
}

// EnsureTables provisions table rows up to the restaurant's table count and
// returns all of them, numbered from 1. QR links are generated from these.
func EnsureTables(restaurantID uuid.UUID, tableCount int) ([]models.Table, error) {
	txErr := database.Tx(func(tx *sql.Tx) error {
		for n := 1; n <= tableCount; n++ {
			_, err := tx.Exec(`
				INSERT INTO tables (restaurant_id, number)
				VALUES ($1, $2)
				ON CONFLICT (restaurant_id, number) DO NOTHING`, restaurantID, n)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	rows, err := database.TableTap.Query(`
		SELECT id, restaurant_id, number FROM tables
		WHERE restaurant_id = $1 ORDER BY number`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Number); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListPendingByRestaurants backs the owner console query directly; the
// OrderStore method delegates here so both share one statement.
func ListPendingByRestaurants(ctx context.Context, restaurantIDs []uuid.UUID) ([]models.Order, error) {
	rows, err := database.TableTap.QueryContext(ctx, `
		SELECT id, table_id, restaurant_id, submitted, completed, total, created_at, updated_at
		FROM orders
		WHERE restaurant_id = ANY($1) AND submitted AND NOT completed
		ORDER BY created_at`, pq.Array(restaurantIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, o)
	}
	return pending, rows.Err()
}
