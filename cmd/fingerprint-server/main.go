package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/identify"
	"github.com/high-horse/fingerprint-server/internal/logging"
	"github.com/high-horse/fingerprint-server/internal/server"
	"github.com/high-horse/fingerprint-server/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	if *configPath != "" {
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		config.LoadDefaultConfig()
	}
	cfg := config.Config

	closer, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("opening store")
	}

	svc := identify.New(st, identify.OptionsFrom(cfg))
	srv := server.New(svc, cfg)

	go func() {
		if err := srv.Listen(); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func openStore(c config.StoreConfig) (store.Store, error) {
	if c.Backend != "redis" {
		return store.NewMemory(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Address,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	st := store.NewRedis(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis %s: %w", c.Redis.Address, err)
	}
	log.Info().Str("address", c.Redis.Address).Int("db", c.Redis.DB).Msg("connected to redis")
	return st, nil
}
