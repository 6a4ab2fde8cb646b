package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"perishable-scm-api-server/config"
	"perishable-scm-api-server/internal/api/routes"
	"perishable-scm-api-server/internal/auth"
	"perishable-scm-api-server/internal/database"
	"perishable-scm-api-server/internal/dispatch"
	"perishable-scm-api-server/internal/inventory"
	"perishable-scm-api-server/internal/jobs"
	"perishable-scm-api-server/internal/s3"
	"perishable-scm-api-server/internal/socket"
	"perishable-scm-api-server/internal/storage"
	"perishable-scm-api-server/internal/util"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		panic("could not load config: " + err.Error())
	}

	util.InitLogger(cfg.Server.Env)
	defer util.SyncLogger()
	log := util.GetLogger()

	tokenLifetime, err := time.ParseDuration(cfg.JWT.Expiration)
	if err != nil {
		log.Fatal("invalid jwt expiration", zap.String("value", cfg.JWT.Expiration), zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	auth.Configure(cfg.JWT.Secret, tokenLifetime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal("mongo connection failed", zap.Error(err))
	}
	defer database.Disconnect(client)
	db := client.Database(cfg.Mongo.DBName)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("index setup failed", zap.Error(err))
	}
	if err := database.SeedAdmin(db); err != nil {
		log.Fatal("admin seeding failed", zap.Error(err))
	}

	productStore := storage.NewProductStore(db)
	batchStore := storage.NewBatchStore(db)
	txStore := storage.NewTransactionStore(db)
	dispatchStore := storage.NewDispatchStore(db)
	driverStore := storage.NewDriverStore(db)
	vehicleStore := storage.NewVehicleStore(db)
	hubStore := storage.NewHubStore(db)

	wsHub := socket.NewHub(log)

	inventorySvc := inventory.NewService(productStore, batchStore, txStore, hubStore, log)
	dispatchSvc := dispatch.NewService(inventorySvc, dispatchStore, driverStore, vehicleStore, hubStore, wsHub, log)

	var s3Uploader *s3.Uploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err = s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatal("s3 uploader setup failed", zap.Error(err))
		}
	} else {
		log.Warn("S3 bucket not configured, delivery photo upload disabled")
	}

	allocator, err := jobs.StartAllocator(cfg.Allocator.Spec, dispatchSvc, log)
	if err != nil {
		log.Fatal("allocator job setup failed", zap.Error(err))
	}
	defer allocator.Stop()

	router := routes.SetupRouter(cfg, db, inventorySvc, dispatchSvc, routes.Stores{
		Hubs:     hubStore,
		Drivers:  driverStore,
		Vehicles: vehicleStore,
	}, s3Uploader, wsHub)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("api server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
