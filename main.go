package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"erp_sales/api"
	"erp_sales/internal/config"
	"erp_sales/internal/gateway"
	"erp_sales/internal/logging"
	"erp_sales/internal/sales"
	"erp_sales/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading configuration: %v", err))
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer logger.Sync()

	gw := gateway.New(cfg.API.URL, cfg.API.Timeout, logger)
	defer gw.Close()

	var storage session.Storage = session.NewLocalStorage()
	if cfg.Session.File != "" {
		storage = session.NewFileStorage(cfg.Session.File)
	}
	sessionStore := session.NewStore(gw, storage, logger)

	salesService := sales.NewService(gw, logger)
	form := sales.NewForm(salesService, sales.FormOptions{
		SellerID: func() string {
			if u, ok := sessionStore.CurrentUser(); ok {
				return u.SellerID()
			}
			return ""
		},
		FallbackSellerID: cfg.Session.SellerFallbackID,
	}, logger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.InitRoutes(r, api.Deps{
		Gateway: gw,
		Session: sessionStore,
		Sales:   salesService,
		Form:    form,
		Logger:  logger,
	})

	logger.Info("starting ERP front end", zap.String("addr", cfg.HTTP.Addr()), zap.String("env", cfg.App.Env))
	if err := r.Run(cfg.HTTP.Addr()); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
