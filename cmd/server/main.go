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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/avklenov/martdeck/internal/config"
	"github.com/avklenov/martdeck/internal/es"
	"github.com/avklenov/martdeck/internal/handlers"
	"github.com/avklenov/martdeck/internal/logging"
	"github.com/avklenov/martdeck/internal/mykafka"
	"github.com/avklenov/martdeck/internal/service/order"
	"github.com/avklenov/martdeck/internal/service/token"
	httpserver "github.com/avklenov/martdeck/internal/transport/http"
	"github.com/avklenov/martdeck/internal/validate"
)

const esProductIndex = "products"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, event publishing disabled")
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	orderSvc := &order.Service{DB: db}

	productHandler := &handlers.ProductHandler{DB: db, Producer: prod, ESIndex: esProductIndex}
	searchHandler := &handlers.SearchHandler{Index: esProductIndex}
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		productHandler.ES = esClient
		searchHandler.ES = esClient
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:              db,
		JWTSecret:       jwtSecret,
		AuthHandler:     &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		UserHandler:     &handlers.UserHandler{DB: db},
		CategoryHandler: &handlers.CategoryHandler{DB: db},
		ProductHandler:  productHandler,
		ReviewHandler:   &handlers.ReviewHandler{DB: db},
		OrderHandler:    &handlers.OrderHandler{Svc: orderSvc, Producer: prod},
		SearchHandler:   searchHandler,
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
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
