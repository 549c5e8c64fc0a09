package handlers

import (
	"net/http"

	"github.com/ray-remotestate/tabletap/models"
	"github.com/ray-remotestate/tabletap/utils"
)

// ListPendingOrders is the owner console feed: submitted, incomplete orders
// across every owned restaurant, oldest unfulfilled first.
func ListPendingOrders(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	pending, err := Core.ListPending(r.Context(), ownerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if pending == nil {
		pending = []models.Order{}
	}
	utils.RespondJSON(w, http.StatusOK, pending)
}

func OrderDetail(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	cart, err := Core.OrderDetail(r.Context(), ownerID, orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, cart)
}

func CompleteOrder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := Core.Complete(r.Context(), ownerID, orderID); err != nil {
		respondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "order completed"})
}
