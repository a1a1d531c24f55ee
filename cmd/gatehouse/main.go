package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse"
	"github.com/go-oidfed/gatehouse/cmd/gatehouse/config"
	"github.com/go-oidfed/gatehouse/internal/logger"
	"github.com/go-oidfed/gatehouse/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.WithField("version", version.VERSION).Info("Loaded Config")
	c := config.Get()

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := backs.Close(); err != nil {
			log.WithError(err).Error("failed to close storage")
		}
	}()

	gh, err := gatehouse.NewGatehouse(
		c.Server, backs.Users, gatehouse.Options{
			Secret:          c.Auth.Secret(),
			Algorithm:       c.Auth.Algorithm,
			TokenLifetime:   c.Auth.AccessTokenLifetime.Duration(),
			PasswordHashing: c.PasswordHashing,
			PublicURL:       c.API.PublicURL,
			Docs:            c.API.Docs,
			Metrics:         c.API.Metrics,
			AccessLog:       logger.AccessWriter(),
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Initialized Gatehouse")

	if c.Bootstrap.Enabled {
		created, err := gh.Accounts.Bootstrap(context.Background(), c.Bootstrap.Admin())
		if err != nil {
			log.WithError(err).Fatal("could not bootstrap admin user")
		}
		if created {
			log.WithField("username", c.Bootstrap.Username).Info("Created admin user")
		} else {
			log.WithField("username", c.Bootstrap.Username).Info("Admin user already exists, skipping bootstrap")
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- gh.Start()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-signals:
		log.WithField("signal", sig.String()).Info("Shutting down")
		if err = gh.Shutdown(); err != nil {
			log.WithError(err).Error("error during shutdown")
		}
	case err = <-errs:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	}
}
