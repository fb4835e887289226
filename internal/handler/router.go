package handler

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/monitoring"
	"banking-core/internal/service"
)

type Deps struct {
	Auth      Authenticator
	Accounts  service.AccountOperations
	Cards     service.CardOperations
	Transfers service.TransferOperations
	Metrics   *monitoring.Registry
	Logger    *logrus.Logger
}

// NewRouter mounts the public /auth routes and the JWT-protected /api tree.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(router.PathPrefix("/auth").Subrouter())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(d.Auth, d.Logger))

	NewAccountHandler(d.Accounts, d.Cards, d.Logger).RegisterRoutes(api.PathPrefix("/accounts").Subrouter())
	NewCardHandler(d.Cards, d.Accounts, d.Logger).RegisterRoutes(api.PathPrefix("/cards").Subrouter())
	NewTransactionHandler(d.Transfers, d.Accounts, d.Cards, d.Logger).RegisterRoutes(api.PathPrefix("/transactions").Subrouter())
	NewMonitoringHandler(d.Metrics, d.Logger).RegisterRoutes(api.PathPrefix("/monitoring").Subrouter())

	return router
}
