package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tabletap/config"
	"github.com/ray-remotestate/tabletap/database"
	"github.com/ray-remotestate/tabletap/database/dbhelper"
	"github.com/ray-remotestate/tabletap/handlers"
	"github.com/ray-remotestate/tabletap/orders"
	"github.com/ray-remotestate/tabletap/server"
	"github.com/ray-remotestate/tabletap/sessions"
)

const shutdownTimeOut = 10 * time.Second

func main() {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	config.Init()

	if err := database.ConnectAndMigrate(); err != nil {
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	logrus.Println("migration is successful")

	var binder sessions.Store
	var redisStore *sessions.Redis
	if redisURL := config.RedisURL(); redisURL != "" {
		var err error
		redisStore, err = sessions.NewRedis(redisURL, config.SessionTTL())
		if err != nil {
			logrus.Panicf("failed to initialize redis, error: %v", err)
		}
		binder = redisStore
	} else {
		logrus.Warn("REDIS_URL not set, using in-memory session bindings")
		binder = sessions.NewMemory()
	}

	catalog := dbhelper.CatalogStore{}
	handlers.Init(orders.NewService(catalog, dbhelper.OrderStore{}, catalog, binder))

	svr := server.SetupRoutes()
	go func() {
		logrus.Printf("listening on %s", config.Port())
		if err := svr.Run(config.Port()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Panic("server stopped unexpectedly")
		}
	}()

	<-done

	logrus.Info("shutting down...")
	var result *multierror.Error
	if err := svr.Shutdown(shutdownTimeOut); err != nil {
		result = multierror.Append(result, err)
	}
	if err := database.ShutdownDatabase(); err != nil {
		result = multierror.Append(result, err)
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logrus.WithError(err).Error("shutdown finished with errors")
		return
	}

	logrus.Info("system is shut ..zzz")
}
