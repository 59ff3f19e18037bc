// @title           Penbox API
// @version         1.0
// @description     REST backend for sharing HTML/CSS/JS snippets ("pens") and collections of them.
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"
	"penbox/internal/api"
	"penbox/internal/config"
	"penbox/internal/database"
	"penbox/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "penbox/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping the database: %v", err)
	}
	log.Println("Connected to the database")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool)
	server := api.NewServer(cfg, store, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)
	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", server.RegisterHandler)
			r.Get("/", server.ListUsersHandler)
			r.Post("/login", server.LoginHandler)
			r.Post("/refresh", server.RefreshHandler)

			r.Group(func(r chi.Router) {
				r.Use(server.AuthMiddleware)
				r.Get("/getCurrent", server.GetCurrentUserHandler)
				r.Put("/", server.UpdateUserHandler)
				r.Delete("/{id}", server.DeleteUserHandler)
				r.Post("/logout", server.LogoutHandler)
				r.Post("/{id}/follow", server.FollowUserHandler)
				r.Delete("/{id}/follow", server.UnfollowUserHandler)
				r.Get("/{id}/followers", server.ListFollowersHandler)
				r.Get("/{id}/following", server.ListFollowingHandler)
			})
		})

		r.Route("/pens", func(r chi.Router) {
			r.Use(server.AuthMiddleware)
			r.Post("/", server.CreatePenHandler)
			r.Get("/", server.ListPensHandler)
			r.Get("/get", server.ListUserPensHandler)
			r.Get("/tempDel", server.ListTrashedPensHandler)
			r.Get("/current/{id}", server.GetCurrentPenHandler)
			r.Put("/{id}", server.UpdatePenHandler)
			r.Post("/{id}", server.SetPenVisibilityHandler)
			r.Delete("/{id}", server.DeletePenHandler)
			r.Post("/tempDel/{id}", server.TempDeletePenHandler)
			r.Post("/restore/{id}", server.RestorePenHandler)
			r.Post("/{id}/like", server.LikePenHandler)
			r.Delete("/{id}/like", server.UnlikePenHandler)
		})

		r.Route("/collections", func(r chi.Router) {
			r.Use(server.AuthMiddleware)
			r.Post("/", server.CreateCollectionHandler)
			r.Get("/", server.ListCollectionsHandler)
			r.Get("/get", server.ListUserCollectionsHandler)
			r.Get("/tempDel", server.ListTrashedCollectionsHandler)
			r.Get("/current/{id}", server.GetCurrentCollectionHandler)
			r.Put("/{id}", server.UpdateCollectionHandler)
			r.Post("/{id}", server.SetCollectionVisibilityHandler)
			r.Delete("/{id}", server.DeleteCollectionHandler)
			r.Post("/tempDel/{id}", server.TempDeleteCollectionHandler)
			r.Post("/restore/{id}", server.RestoreCollectionHandler)
			r.Post("/{id}/pens/{penId}", server.AddPenToCollectionHandler)
			r.Delete("/{id}/pens/{penId}", server.RemovePenFromCollectionHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(server.AuthMiddleware)
			r.Get("/events", server.GetEventsHandler)
		})
	})

	log.Printf("Starting server on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
