package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/user-identity-service/internal/auth"
	"github.com/iliyamo/user-identity-service/internal/config"
	"github.com/iliyamo/user-identity-service/internal/database"
	"github.com/iliyamo/user-identity-service/internal/handler"
	"github.com/iliyamo/user-identity-service/internal/mailqueue"
	"github.com/iliyamo/user-identity-service/internal/middleware"
	"github.com/iliyamo/user-identity-service/internal/oauth"
	"github.com/iliyamo/user-identity-service/internal/queue"
	"github.com/iliyamo/user-identity-service/internal/repository"
	"github.com/iliyamo/user-identity-service/internal/router"
	"github.com/iliyamo/user-identity-service/internal/session"
	"github.com/iliyamo/user-identity-service/internal/verification"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	codes := repository.NewCodeRepo(db)
	tokens := repository.NewTokenRepo(db)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLMin)
	publisher := mailqueue.NewPublisher()
	workflow := verification.NewWorkflow(users, codes, publisher)
	verifier := oauth.NewGoogleVerifier(cfg.GoogleClientID)
	manager := session.NewManager(users, tokens, workflow, verifier, issuer, cfg.BcryptCost)

	// Background consumer delivers queued verification codes over SMTP.
	go queue.StartMailConsumer(mailqueue.BrokerURL(), queue.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	e := echo.New()
	router.RegisterRoutes(e)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(manager), issuer, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
