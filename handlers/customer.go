package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ray-remotestate/tabletap/database/dbhelper"
	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/orders"
	"github.com/ray-remotestate/tabletap/sessions"
	"github.com/ray-remotestate/tabletap/utils"
)

// sessionTokenHeader carries the opaque customer session token. The first
// response that needs one echoes a freshly minted token back; the client
// sends it on every later request.
const sessionTokenHeader = "X-Session-Token"

func sessionToken(w http.ResponseWriter, r *http.Request) string {
	token := r.Header.Get(sessionTokenHeader)
	if token == "" {
		token = sessions.NewToken()
	}
	w.Header().Set(sessionTokenHeader, token)
	return token
}

// CustomerMenu shows the menu for a table. With no menu or category in the
// query, the earliest-created ones are used.
func CustomerMenu(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	table, err := catalog.GetTable(r.Context(), tableID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	menu, err := resolveMenu(r, table.RestaurantID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	categories, err := dbhelper.ListCategories(menu.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to query categories")
		return
	}

	active, err := resolveCategory(r, menu.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	items, err := dbhelper.ListMenuItems(active.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to query items")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"table":           table,
		"menu":            menu,
		"categories":      categories,
		"active_category": active,
		"items":           items,
	})
}

// AddOrderItem adds quantity of an item to the table session's cart,
// opening an order on first add.
func AddOrderItem(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	type request struct {
		ItemID   uuid.UUID `json:"item_id"`
		Quantity int       `json:"quantity"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token := sessionToken(w, r)
	order, err := Core.AddItem(r.Context(), token, tableID, req.ItemID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status(),
		"total":    order.Total,
	})
}

func ViewCart(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(w, r)
	cart, err := Core.ViewCart(r.Context(), token)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, cart)
}

func SubmitOrder(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(w, r)
	order, err := Core.Submit(r.Context(), token)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status(),
		"total":    order.Total,
	})
}

func resolveMenu(r *http.Request, restaurantID uuid.UUID) (models.Menu, error) {
	if raw := r.URL.Query().Get("menu_id"); raw != "" {
		menuID, err := uuid.Parse(raw)
		if err != nil {
			return models.Menu{}, orders.ErrNotFound
		}
		return dbhelper.GetMenu(menuID)
	}
	return dbhelper.FirstMenu(restaurantID)
}

func resolveCategory(r *http.Request, menuID uuid.UUID) (models.MenuCategory, error) {
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return models.MenuCategory{}, orders.ErrNotFound
		}
		return dbhelper.GetCategory(categoryID)
	}
	return dbhelper.FirstCategory(menuID)
}
