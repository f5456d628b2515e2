package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/config"
	"github.com/workflow-crm/report-automation/internal/excel"
	"github.com/workflow-crm/report-automation/internal/report"
	"github.com/workflow-crm/report-automation/internal/repository"
	"github.com/workflow-crm/report-automation/internal/sheets"
	"github.com/workflow-crm/report-automation/internal/web"
	"github.com/workflow-crm/report-automation/pkg/database"
	"github.com/workflow-crm/report-automation/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting report automation service",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("sheets_enabled", cfg.Sheets.Enabled))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	runRepo := repository.NewRunRepository(db.DB, logger)

	var uploader report.Uploader
	if cfg.Sheets.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Sheets.Timeout)
		client, err := sheets.NewClient(ctx, sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			FolderID:        cfg.Sheets.FolderID,
			ShareEmail:      cfg.Sheets.ShareEmail,
		}, logger)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize Google Sheets client", zap.Error(err))
		}
		uploader = client
	} else {
		logger.Warn("Google Sheets disabled, exporting to local xlsx files",
			zap.String("output_dir", cfg.Export.OutputDir))
		uploader = excel.NewExporter(cfg.Export.OutputDir, logger)
	}

	service := report.NewService(cfg.RulesFor, uploader, runRepo, logger)
	handler := web.NewHandler(cfg, service, runRepo, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := web.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
