// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/auth"
	"github.com/quizparty/lobbyd/internal/cache"
	"github.com/quizparty/lobbyd/internal/database"
	"github.com/quizparty/lobbyd/internal/handlers"
	"github.com/quizparty/lobbyd/internal/lobby"
	"github.com/quizparty/lobbyd/internal/store"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	var st store.Store
	if os.Getenv("PG_HOST") != "" {
		pg, err := database.Connect(context.Background())
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		st = pg
	} else {
		logger.Warn("PG_HOST not set; lobbies held in memory only")
		st = store.NewMemory()
	}

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, lobby event log disabled: %v", err)
	}

	svc := lobby.NewService(st, logger)
	srv := handlers.NewServer(svc, logger)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
