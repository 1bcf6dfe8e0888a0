// Package server wires the HTTP boundary: routing, request decoding,
// validation and error-to-status mapping. All domain rules live in the
// service layer; handlers only translate.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrahman/messbook/internal/auth"
	"github.com/mrahman/messbook/internal/middleware"
	"github.com/mrahman/messbook/internal/service"
	"github.com/mrahman/messbook/internal/storage"
)

// Server holds the services and exposes them as JSON endpoints.
type Server struct {
	store    storage.Store
	auth     *service.AuthService
	mess     *service.MessService
	meals    *service.MealService
	ledger   *service.LedgerService
	finance  *service.FinanceService
	cycles   *service.CycleService
	jwt      *auth.JWTManager
	validate *validator.Validate
}

// New creates a Server over the given store and JWT manager.
// defaultTimezone applies to messes created without an explicit one.
func New(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, defaultTimezone string) *Server {
	return &Server{
		store:    store,
		auth:     service.NewAuthService(authenticator, jwtManager),
		mess:     service.NewMessService(store, defaultTimezone),
		meals:    service.NewMealService(store, nil),
		ledger:   service.NewLedgerService(store),
		finance:  service.NewFinanceService(store),
		cycles:   service.NewCycleService(store),
		jwt:      jwtManager,
		validate: validator.New(),
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwt))

			r.Post("/messes", s.handleCreateMess)

			r.Route("/messes/{messID}", func(r chi.Router) {
				r.Get("/", s.handleGetMess)
				r.Get("/members", s.handleListMembers)
				r.Post("/members", s.handleAddMember)
				r.Post("/manager-transfer", s.handleTransferManager)
				r.Get("/cutoffs", s.handleGetCutoffs)
				r.Put("/cutoffs", s.handleUpdateCutoffs)
				r.Get("/activity", s.handleActivity)

				r.Put("/meals/toggle", s.handleToggleMeal)
				r.Put("/meals/guests", s.handleSetGuests)
				r.Put("/meals/bulk", s.handleBulkMeals)
				r.Get("/meals/{date}", s.handleDaySheet)

				r.Post("/bazaar", s.handleAddBazaar)
				r.Post("/bazaar/{expenseID}/approval", s.handleBazaarApproval)
				r.Post("/deposits", s.handleAddDeposit)
				r.Post("/deposits/{depositID}/approval", s.handleDepositApproval)
				r.Post("/fixed-costs", s.handleAddFixedCost)
				r.Post("/individual-costs", s.handleAddIndividualCost)
				r.Post("/individual-costs/{costID}/approval", s.handleIndividualCostApproval)

				r.Get("/rate", s.handleMealRate)
				r.Get("/overview", s.handleOverview)
				r.Get("/dashboard", s.handleDashboard)

				r.Get("/cycles", s.handleListCycles)
				r.Post("/cycles/close", s.handleCloseCycle)

				r.Route("/cycles/{cycleID}", func(r chi.Router) {
					r.Get("/", s.handleGetCycle)
					r.Put("/name", s.handleRenameCycle)
					r.Get("/meals", s.handleCycleMeals)
					r.Get("/members/{memberID}/meals", s.handleMemberMeals)
					r.Get("/bazaar", s.handleListBazaar)
					r.Get("/deposits", s.handleListDeposits)
					r.Get("/fixed-costs", s.handleListFixedCosts)
					r.Get("/individual-costs", s.handleListIndividualCosts)
					r.Get("/consumption", s.handleConsumptionRates)
					r.Get("/balances", s.handleAllBalances)
					r.Get("/balances/{memberID}", s.handleMemberBalance)
					r.Get("/snapshots", s.handleSnapshots)
				})
			})
		})
	})
	return r
}

// actor resolves the caller's membership in the mess named by the route.
func (s *Server) actor(r *http.Request) (service.Actor, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return service.Actor{}, service.ErrUnauthenticated
	}
	messID := chi.URLParam(r, "messID")
	return service.ResolveActor(r.Context(), s.store, messID, userID)
}
