package main

import (
	"log"
	"os"
	"time"

	"botdeck/internal/api"
	"botdeck/internal/auth"
	"botdeck/internal/config"
	"botdeck/internal/discord"
	"botdeck/internal/gateway"
	"botdeck/internal/metrics"
	"botdeck/internal/redis"
	"botdeck/internal/staff"
	"botdeck/internal/storage"
	"botdeck/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("BOTDECK_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("BOTDECK_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: staff, staff_tokens
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer cache.Close()
	}

	session, err := discord.Connect(cfg.Discord.BotToken)
	if err != nil {
		log.Fatalf("connect discord: %v", err)
	}
	defer session.Close()

	metrics.Init()

	recordStore := store.New(cfg.BasicConfig.RecordsPath)
	cacheTTL := time.Duration(cfg.BasicConfig.ChannelCacheTTLSec) * time.Second
	gw := gateway.New(session, recordStore, cache, cacheTTL)

	tokenTTL := time.Duration(cfg.BasicConfig.TokenTTLHours) * time.Hour
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	authService := auth.NewService(db, tokenTTL)
	staffService := staff.NewService(db)
	handlers := api.NewHandler(gw, staffService, authService, cfg.BasicConfig.StaticDir)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
