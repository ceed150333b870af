package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/api"
	in_memory "github.com/dorakhq/dorak/internal/storage/in-memory"
	key_value "github.com/dorakhq/dorak/internal/storage/key-value"
	"github.com/dorakhq/dorak/internal/usecase"
)

func Run(ctx context.Context, cfg *config.Config) error {
	geminiUsecase, err := usecase.NewGeminiUsecase(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create gemini usecase: %w", err)
	}

	var (
		userStorage       usecase.UserStorage
		preferenceStorage usecase.PreferenceStorage
	)
	if cfg.Redis.Endpoint != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Endpoint,
		})
		if err = rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		userStorage = key_value.NewUserStorage(rdb)
		preferenceStorage = key_value.NewPreferenceStorage(rdb)
		log.Printf("Using redis storage at %s", cfg.Redis.Endpoint)
	} else {
		userStorage = in_memory.NewUserStorage()
		preferenceStorage = in_memory.NewPreferenceStorage()
		log.Print("Using in-memory storage")
	}

	accountUsecase := usecase.NewAccountUsecase(
		usecase.AccountUsecaseDeps{
			UserStorage: userStorage,
			Preferences: preferenceStorage,
		},
		cfg.Account,
	)

	chatUsecase := usecase.NewChatUsecase(
		usecase.ChatUsecaseDeps{
			Provider: geminiUsecase,
		},
	)

	imageUsecase := usecase.NewImageUsecase(
		usecase.ImageUsecaseDeps{
			Provider: geminiUsecase,
			Account:  accountUsecase,
		},
		cfg.Account,
	)

	handlers := api.NewHandlers(accountUsecase, chatUsecase, imageUsecase, cfg.HTTP)

	mux := http.NewServeMux()
	handlers.Register(mux)

	log.Printf("Listening on %s", cfg.HTTP.Addr)
	return http.ListenAndServe(cfg.HTTP.Addr, handlers.WithCORS(handlers.WithAuth(mux)))
}
