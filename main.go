package main

import (
	"log"

	api "notification-delivery/cmd/api"
	authUsecase "notification-delivery/internal/auth/usecase"
	"notification-delivery/internal/device/domain"
	deviceRepo "notification-delivery/internal/device/repository"
	deviceUsecase "notification-delivery/internal/device/usecase"
	"notification-delivery/internal/notification"
	notificationDelivery "notification-delivery/internal/notification/delivery"
	"notification-delivery/pkg/config"
	"notification-delivery/pkg/database"
	"notification-delivery/pkg/dedup"
	"notification-delivery/pkg/fcm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Refusing to start: ", err)
	}

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Device tables are owned by the account service; migrate only for local setups
	if cfg.DBAutoMigrate {
		if err := db.AutoMigrate(domain.Models()...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}

	// Initialize repositories and use cases (dependency injection)
	devices := deviceRepo.NewDeviceRepository(db)
	lookup := deviceUsecase.NewDeviceLookup(devices)

	// Initialize FCM Client (optional, alerts are still rendered without it)
	senders := map[domain.Platform]notification.Sender{}
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push hand-off disabled): %v", err)
		} else {
			senders[domain.PlatformGCM] = fcmClient
		}
	} else {
		log.Printf("[WARN] No Firebase credentials configured, FCM disabled")
	}

	// Dedup store: Redis when configured, process memory otherwise
	var store dedup.Store
	if cfg.RedisAddr != "" {
		redisStore, err := dedup.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.DedupTTL)
		if err != nil {
			log.Printf("[WARN] %v, falling back to in-memory dedup", err)
			store = dedup.NewMemoryStore(cfg.DedupTTL)
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	} else {
		store = dedup.NewMemoryStore(cfg.DedupTTL)
	}

	notifService := notification.NewService(lookup, devices, senders, store)
	tokens := authUsecase.NewTokenService(cfg.JWTSecret)

	// Initialize HTTP handler
	handler := api.NewHandler(tokens, notificationDelivery.NewAlertHandler(notifService, devices, cfg.QueryTimeout))

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
