package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/tabletap/handlers"
	"github.com/ray-remotestate/tabletap/middlewares"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes() *Server {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	router.HandleFunc("/register", handlers.Register).Methods("POST")
	router.HandleFunc("/login", handlers.Login).Methods("POST")
	router.HandleFunc("/refresh", handlers.RefreshToken).Methods("POST")

	// customer surface: anonymous, keyed only by the session token header
	customer := router.PathPrefix("/customer").Subrouter()
	customer.HandleFunc("/tables/{id}/menu", handlers.CustomerMenu).Methods("GET")
	customer.HandleFunc("/tables/{id}/items", handlers.AddOrderItem).Methods("POST")
	customer.HandleFunc("/cart", handlers.ViewCart).Methods("GET")
	customer.HandleFunc("/cart/submit", handlers.SubmitOrder).Methods("POST")

	// owner surface
	authRoutes := router.PathPrefix("/api").Subrouter()
	authRoutes.Use(middlewares.AuthMiddleware)

	authRoutes.HandleFunc("/logout", handlers.Logout).Methods("POST")
	authRoutes.HandleFunc("/restaurants", handlers.CreateRestaurant).Methods("POST")
	authRoutes.HandleFunc("/restaurants", handlers.ListRestaurants).Methods("GET")
	authRoutes.HandleFunc("/restaurants/{id}/menus", handlers.CreateMenu).Methods("POST")
	authRoutes.HandleFunc("/restaurants/{id}/menus", handlers.ListMenus).Methods("GET")
	authRoutes.HandleFunc("/restaurants/{id}/qrcodes", handlers.QRLinks).Methods("GET")
	authRoutes.HandleFunc("/menus/{id}/categories", handlers.CreateCategory).Methods("POST")
	authRoutes.HandleFunc("/categories/{id}/items", handlers.CreateMenuItem).Methods("POST")

	authRoutes.HandleFunc("/orders", handlers.ListPendingOrders).Methods("GET")
	authRoutes.HandleFunc("/orders/{id}", handlers.OrderDetail).Methods("GET")
	authRoutes.HandleFunc("/orders/{id}/complete", handlers.CompleteOrder).Methods("POST")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
