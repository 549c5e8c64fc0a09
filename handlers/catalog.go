package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ray-remotestate/tabletap/config"
	"github.com/ray-remotestate/tabletap/database/dbhelper"
	"github.com/ray-remotestate/tabletap/utils"
)

var catalog dbhelper.CatalogStore

func CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	type request struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		TableCount  int    `json:"table_count"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" || req.TableCount <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "name and a positive table_count are required")
		return
	}

	restID, err := dbhelper.CreateRestaurant(ownerID, req.Name, req.Description, req.TableCount)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create restaurant")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message":       "restaurant created",
		"restaurant_id": restID.String(),
	})
}

func ListRestaurants(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	restaurants, err := dbhelper.ListRestaurantsByOwner(ownerID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to query restaurants")
		return
	}
	utils.RespondJSON(w, http.StatusOK, restaurants)
}

func CreateMenu(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	restaurantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !requireOwnership(w, r, ownerID, restaurantID) {
		return
	}

	type request struct {
		Name string `json:"name"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondError(w, http.StatusBadRequest, "menu name is required")
		return
	}

	menuID, err := dbhelper.CreateMenu(restaurantID, req.Name)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create menu")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "menu created",
		"menu_id": menuID.String(),
	})
}

func ListMenus(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	restaurantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !requireOwnership(w, r, ownerID, restaurantID) {
		return
	}

	menus, err := dbhelper.ListMenus(restaurantID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to query menus")
		return
	}
	utils.RespondJSON(w, http.StatusOK, menus)
}

func CreateCategory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	menuID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	menu, err := dbhelper.GetMenu(menuID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !requireOwnership(w, r, ownerID, menu.RestaurantID) {
		return
	}

	type request struct {
		Name string `json:"name"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondError(w, http.StatusBadRequest, "category name is required")
		return
	}

	categoryID, err := dbhelper.CreateCategory(menuID, req.Name)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message":     "category created",
		"category_id": categoryID.String(),
	})
}

func CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := dbhelper.GetCategory(categoryID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	menu, err := dbhelper.GetMenu(category.MenuID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !requireOwnership(w, r, ownerID, menu.RestaurantID) {
		return
	}

	type request struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" || req.Price <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "name and a positive price are required")
		return
	}

	itemID, err := dbhelper.CreateMenuItem(categoryID, req.Name, req.Description, req.Price)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create menu item")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message":      "menu item created",
		"menu_item_id": itemID.String(),
	})
}

// QRLinks provisions the restaurant's tables and returns one customer URL
// per table. Rendering the URLs into images is the frontend's problem.
func QRLinks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	restaurantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !requireOwnership(w, r, ownerID, restaurantID) {
		return
	}

	restaurant, err := dbhelper.GetRestaurant(restaurantID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tables, err := dbhelper.EnsureTables(restaurantID, restaurant.TableCount)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to provision tables")
		return
	}

	type link struct {
		TableID uuid.UUID `json:"table_id"`
		Number  int       `json:"number"`
		URL     string    `json:"url"`
	}
	links := make([]link, 0, len(tables))
	for _, t := range tables {
		links = append(links, link{
			TableID: t.ID,
			Number:  t.Number,
			URL:     fmt.Sprintf("%s/customer/tables/%s/menu", config.CustomerBaseURL(), t.ID),
		})
	}
	utils.RespondJSON(w, http.StatusOK, links)
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid "+key)
		return uuid.Nil, false
	}
	return id, true
}

func requireOwnership(w http.ResponseWriter, r *http.Request, ownerID, restaurantID uuid.UUID) bool {
	owns, err := catalog.OwnsRestaurant(r.Context(), ownerID, restaurantID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to check ownership")
		return false
	}
	if !owns {
		utils.RespondError(w, http.StatusForbidden, "not an owner of this restaurant")
		return false
	}
	return true
}
