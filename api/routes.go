package api

import (
	"github.com/gorilla/mux"
	"github.com/vamoapp/vamo/internal/ai"
	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/internal/db"
	"github.com/vamoapp/vamo/internal/offer"
	"github.com/vamoapp/vamo/internal/repository/sqlite"
	"github.com/vamoapp/vamo/internal/reward"
	"github.com/vamoapp/vamo/internal/turn"
)

// SetupRoutes wires repositories, services and handlers onto the router. The
// generation client is injected so tests can substitute a stub.
func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, gen ai.Generator) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(database, logger)

	// Services
	classifier := ai.NewClassifier(gen, cfg.Engine, logger)
	advisor, err := ai.NewOfferAdvisor(gen, cfg.Engine, logger)
	if err != nil {
		return nil, err
	}
	processor := turn.NewProcessor(turn.Repos{
		Projects: repo,
		Messages: repo,
		Activity: repo,
		Ledger:   repo,
		Profiles: repo,
	}, classifier, cfg.Rewards, cfg.Engine.HistoryLimit, logger)
	rewardSvc := reward.NewService(repo, repo, repo, repo, cfg.Rewards, logger)
	offerGen := offer.NewGenerator(repo, repo, repo, repo, repo, advisor, cfg.Rewards, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, repo, cfg.JWTSecret, cfg.TokenDuration)
	turnsHandler := NewTurnsHandler(processor)
	rewardsHandler := NewRewardsHandler(rewardSvc)
	redemptionsHandler := NewRedemptionsHandler(rewardSvc, repo)
	offersHandler := NewOffersHandler(offerGen, repo, repo)
	projectsHandler := NewProjectsHandler(repo, repo, rewardSvc)
	activitiesHandler := NewActivitiesHandler(repo)
	profileHandler := NewProfileHandler(repo, repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Turn endpoints
	apiV1.HandleFunc("/turns", turnsHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/turns/{id}", turnsHandler.Edit).Methods("PUT")
	apiV1.HandleFunc("/turns/{id}", turnsHandler.Delete).Methods("DELETE")

	// Project endpoints
	apiV1.HandleFunc("/projects", projectsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/projects", projectsHandler.List).Methods("GET")
	apiV1.HandleFunc("/projects/{id}", projectsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/projects/{id}/links", projectsHandler.AddLink).Methods("POST")
	apiV1.HandleFunc("/projects/{id}/links", projectsHandler.ListLinks).Methods("GET")
	apiV1.HandleFunc("/projects/{id}/offers", offersHandler.ListByProject).Methods("GET")

	// Reward endpoints
	apiV1.HandleFunc("/rewards", rewardsHandler.Award).Methods("POST")
	apiV1.HandleFunc("/redemptions", redemptionsHandler.Redeem).Methods("POST")
	apiV1.HandleFunc("/redemptions", redemptionsHandler.List).Methods("GET")

	// Offer endpoints
	apiV1.HandleFunc("/offers", offersHandler.Generate).Methods("POST")

	// Activity and profile endpoints
	apiV1.HandleFunc("/activities", activitiesHandler.ListActivities).Methods("GET")
	apiV1.HandleFunc("/profile", profileHandler.Get).Methods("GET")
	apiV1.HandleFunc("/ledger", profileHandler.ListLedger).Methods("GET")

	return r, nil
}
