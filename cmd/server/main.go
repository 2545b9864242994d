package main

import (
	"log"
	"net/http"

	"campus-relay/internal/auth"
	"campus-relay/internal/config"
	"campus-relay/internal/db"
	"campus-relay/internal/handlers"
	"campus-relay/internal/identity"
	"campus-relay/internal/message"
	"campus-relay/internal/metrics"
	"campus-relay/internal/middleware"
	"campus-relay/internal/nav"
	"campus-relay/internal/notify"
	"campus-relay/internal/session"
	"campus-relay/internal/store"
	"campus-relay/internal/websocket"
)

func publicRoute(mux *http.ServeMux, path string, rateLimit *middleware.RateLimitStore, handler http.HandlerFunc) {
	mux.HandleFunc(path, middleware.RateLimitFunc(rateLimit)(middleware.TrackOutboundData(handler)))
}

func authRoute(mux *http.ServeMux, path string, rateLimit *middleware.RateLimitStore, authMw func(http.HandlerFunc) http.HandlerFunc, handler http.HandlerFunc) {
	mux.HandleFunc(path, middleware.RateLimitFunc(rateLimit)(middleware.TrackOutboundData(authMw(handler))))
}

func main() {
	if err := config.LoadConfig("config.yaml"); err != nil {
		log.Fatal("config: ", err)
	}
	cfg := config.Conf

	hub := websocket.NewHub()
	go hub.Run()

	bus := store.NewBus()
	var st store.Store
	var metricsSvc *metrics.Service
	if cfg.DatabasePath != "" {
		gdb, err := db.Init(cfg.DatabasePath)
		if err != nil {
			log.Fatal("db init failed: ", err)
		}
		gs := store.NewGorm(gdb, bus)
		if err := gs.AutoMigrate(); err != nil {
			log.Fatal("db migrate failed: ", err)
		}
		if err := gdb.AutoMigrate(&metrics.Snapshot{}); err != nil {
			log.Fatal("db migrate failed: ", err)
		}
		st = gs

		for _, p := range cfg.Seed.Students {
			row := store.Student{ID: p.ID, FullName: p.Name, Class: p.Group}
			if err := gdb.Where("id = ?", p.ID).FirstOrCreate(&row).Error; err != nil {
				log.Printf("seed student %s: %v", p.ID, err)
			}
		}
		for _, p := range cfg.Seed.Employees {
			row := store.Employee{ID: p.ID, FullName: p.Name, Department: p.Group}
			if err := gdb.Where("id = ?", p.ID).FirstOrCreate(&row).Error; err != nil {
				log.Printf("seed employee %s: %v", p.ID, err)
			}
		}

		metricsSvc = metrics.NewService(gdb, cfg.MetricsInterval(), bus.Dropped, hub.ClientCount)
		metricsSvc.Start()
		defer metricsSvc.Stop()
	} else {
		// allow_degraded: serve an empty school rather than nothing.
		log.Print("WARNING: no database_path configured, running with the no-op store")
		st = store.NewDead()
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal("redis session store: ", err)
		}
		defer rs.Close()
		sessions = rs
	} else {
		log.Print("no redis_url configured, sessions are in-memory and lost on restart")
		sessions = session.NewMemoryStore()
	}

	authSvc := auth.NewService(cfg.JWTSecret, cfg.Name, cfg.TokenTTL(), sessions)
	resolver := identity.NewResolver(st, identity.Normalize(cfg.DefaultRole), cfg.ResolveTimeout())
	stopResolver := resolver.Start(authSvc)
	defer stopResolver()

	router := message.NewRouter(st, cfg.MaxMessageLength)
	notifier := notify.NewService(st, st)

	requireAuth := middleware.RequireAuth(authSvc, resolver)

	authHandler := &handlers.AuthHandler{Auth: authSvc, Resolver: resolver, Profiles: st}
	messageHandler := &handlers.MessageHandler{Router: router, Notifier: notifier}
	notificationHandler := &handlers.NotificationHandler{Notifier: notifier}
	navHandler := &handlers.NavHandler{Tree: nav.DefaultTree()}
	profileHandler := &handlers.ProfileHandler{Profiles: st}

	mux := http.NewServeMux()

	publicRoute(mux, "/auth/login", middleware.AuthRateLimit, authHandler.Login)
	authRoute(mux, "/auth/logout", middleware.AuthRateLimit, requireAuth, authHandler.Logout)
	authRoute(mux, "/auth/session", middleware.GlobalRateLimit, requireAuth, authHandler.Session)

	authRoute(mux, "/messages/send", middleware.MessageRateLimit, requireAuth, messageHandler.SendMessage)
	authRoute(mux, "/messages", middleware.GlobalRateLimit, requireAuth, messageHandler.LoadMessages)

	authRoute(mux, "/notifications", middleware.GlobalRateLimit, requireAuth, notificationHandler.Recent)
	authRoute(mux, "/notifications/read-all", middleware.GlobalRateLimit, requireAuth, notificationHandler.MarkAllRead)

	authRoute(mux, "/navigation", middleware.GlobalRateLimit, requireAuth, navHandler.Navigation)
	authRoute(mux, "/profiles", middleware.GlobalRateLimit, requireAuth, profileHandler.List)

	if metricsSvc != nil {
		metricsHandler := &handlers.MetricsHandler{Service: metricsSvc}
		requireAdmin := middleware.RequireRole(authSvc, resolver, identity.RoleAdmin)
		authRoute(mux, "/metrics", middleware.GlobalRateLimit, requireAdmin, metricsHandler.Current)
	}

	mux.HandleFunc("/ws", websocket.Handler(websocket.Deps{
		Hub:          hub,
		Auth:         authSvc,
		Resolver:     resolver,
		Router:       router,
		Notifier:     notifier,
		Realtime:     st,
		PollInterval: cfg.PollInterval(),
	}))

	log.Printf("%s listening on %s", cfg.Name, cfg.Port)
	if err := http.ListenAndServe(cfg.Port, middleware.CORS(mux)); err != nil {
		log.Fatal(err)
	}
}
