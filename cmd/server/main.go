package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Hdensac/articlo/internal/config"
	"github.com/Hdensac/articlo/internal/es"
	"github.com/Hdensac/articlo/internal/handlers"
	"github.com/Hdensac/articlo/internal/logging"
	loggingmw "github.com/Hdensac/articlo/internal/middleware/logging"
	"github.com/Hdensac/articlo/internal/mykafka"
	"github.com/Hdensac/articlo/internal/notify"
	"github.com/Hdensac/articlo/internal/service/token"
	"github.com/Hdensac/articlo/internal/storage"
	httpserver "github.com/Hdensac/articlo/internal/transport/http"
	"github.com/Hdensac/articlo/internal/validation"
)

const articlesIndex = "articles"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)
	if len(jwtSecret) == 0 || len(refreshSecret) == 0 {
		log.Fatal("JWT_SECRET and REFRESH_SECRET are required")
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var searchHandler *handlers.SearchHandler
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, articlesIndex)
	}

	store, err := storage.NewLocal(configuration.MEDIA_DIR)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	notifier := notify.New(db, producer, logger)
	articleHandler := &handlers.ArticleHandler{
		DB:       db,
		Producer: producer,
		ES:       esClient,
		ESIndex:  articlesIndex,
		Store:    store,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))
	e.Validator = validation.New()

	deps := httpserver.Deps{
		DB:                  db,
		Tokens:              tokens,
		AuthHandler:         &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		ArticleHandler:      articleHandler,
		OrderHandler:        &handlers.OrderHandler{DB: db, Notifier: notifier},
		SellerHandler:       &handlers.SellerHandler{DB: db},
		AdminHandler:        &handlers.AdminHandler{DB: db, Articles: articleHandler},
		NotificationHandler: &handlers.NotificationHandler{DB: db},
		SearchHandler:       searchHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
