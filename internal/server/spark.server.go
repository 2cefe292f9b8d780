package server

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"spark-service/internal/config"
	"spark-service/internal/handler"
	"spark-service/internal/repository"
	"spark-service/internal/router"
	"spark-service/internal/service/identity"
	"spark-service/internal/usecase"
	"spark-service/pkg/cache"
	"spark-service/pkg/jwtutil"
	"spark-service/pkg/kafka"
	"spark-service/pkg/middleware"
)

// NewServer wires the whole service: storage, cache, signing keys,
// the identity provider, event producer, usecases, and the routed
// HTTP surface behind the interceptor.
func NewServer(cfg config.AppConfig) *http.Server {
	ctx := context.Background()

	db, err := config.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Server] database connect failed: %v", err)
	}
	profileRepo := repository.NewProfileRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	sessionCache := cache.NewCache(cfg.RedisAddr, cfg.RedisPass)

	priv, err := jwtutil.LoadRSAPrivateKeyFromPEM(cfg.SessionPrivPath)
	if err != nil {
		log.Fatalf("[Server] session private key: %v", err)
	}
	pub, err := jwtutil.LoadRSAPublicKeyFromPEM(cfg.SessionPubPath)
	if err != nil {
		log.Fatalf("[Server] session public key: %v", err)
	}
	signer := jwtutil.NewSigner(priv, cfg.SessionIssuer, cfg.SessionAudience, cfg.SessionTTL)
	verifier := jwtutil.NewVerifier(pub, cfg.SessionIssuer, cfg.SessionAudience)

	var producer *kafka.AuthEventProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewAuthEventProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Printf("[Server] kafka unavailable, auth events disabled: %v", err)
			producer = nil
		}
	}

	provider := identity.NewProvider(cfg.Provider)

	var publisher usecase.EventPublisher
	if producer != nil {
		publisher = producer
	}
	authUC := usecase.NewAuthUsecase(provider, signer, sessionCache, publisher)
	onboardingUC := usecase.NewOnboardingUsecase(profileRepo, publisher)

	oracle := middleware.NewSessionOracle(verifier, sessionCache)
	interceptor := middleware.NewInterceptor(oracle, profileRepo, cfg.ExemptPrefixes)

	authHandler := handler.NewAuthHandler(authUC, onboardingUC, cfg.Provider.ClientID)
	onboardingHandler := handler.NewOnboardingHandler(onboardingUC)
	pagesHandler := handler.NewPagesHandler(onboardingUC)

	r := chi.NewRouter()
	router.SetupRoutes(r, authHandler, onboardingHandler, pagesHandler, interceptor, rdb)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
}
