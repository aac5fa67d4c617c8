package main

import (
	"context"
	"flag"
	"fmt"

	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/service"
)

// Creates (or finds) a user and prints a token for it, for poking the API
// with curl.
func main() {
	username := flag.String("username", "testuser", "username to create or reuse")
	flag.Parse()

	cfg := config.Load()
	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)
	users := repository.NewUserRepository(pool)
	auth := service.NewAuthService(users, nil, cfg.BotToken, cfg.DevMode)

	u, err := auth.EnsureUser(context.Background(), *username)
	if err != nil {
		logger.Fatal("create user failed", "error", err)
	}

	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	logger.Info("user ready", "id", u.ID, "username", u.Username, "created_at", u.CreatedAt)
	fmt.Println(token)
}
