package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tabletap/orders"
	"github.com/ray-remotestate/tabletap/utils"
)

// Core is the lifecycle controller every ordering handler delegates to.
// main wires it up before the server starts.
var Core *orders.Service

func Init(core *orders.Service) {
	Core = core
}

// respondDomainError maps the orders error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidQuantity):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrNoActiveOrder):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case orders.IsTransition(err):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		logrus.WithError(err).Error("order operation failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
