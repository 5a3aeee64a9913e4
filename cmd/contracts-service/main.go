package main

import (
	"fmt"
	"os"

	"github.com/hartawan/tambak-contracts/internal/auth"
	"github.com/hartawan/tambak-contracts/internal/config"
	"github.com/hartawan/tambak-contracts/internal/db"
	"github.com/hartawan/tambak-contracts/internal/excel"
	httphandler "github.com/hartawan/tambak-contracts/internal/http"
	"github.com/hartawan/tambak-contracts/internal/http/middleware"
	"github.com/hartawan/tambak-contracts/internal/logger"
	"github.com/hartawan/tambak-contracts/internal/pdf"
	"github.com/hartawan/tambak-contracts/internal/repository"
	"github.com/hartawan/tambak-contracts/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	excelGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	contractService := service.NewContractService(contractRepo, excelGenerator, pdfGenerator, cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
