package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fisker/fleetops-backend/internal/api/router"
	"github.com/fisker/fleetops-backend/pkg/config"
	"github.com/fisker/fleetops-backend/pkg/database"
	"github.com/fisker/fleetops-backend/pkg/logger"
	pkgredis "github.com/fisker/fleetops-backend/pkg/redis"
)

// StartServer 启动 HTTP 服务器并阻塞直到收到退出信号
func StartServer(application *App) {
	cfg := application.Config
	handlers := application.Handlers

	r := router.Setup(
		handlers.Auth,
		handlers.Request,
		handlers.Approval,
		handlers.Reservation,
		handlers.Issuance,
		handlers.Stock,
		handlers.Limit,
		application.Services.Auth,
		cfg.Server.Mode,
	)

	// 启动过期预留清扫
	application.BackgroundServices.ReservationSweeper.Start()

	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	printStartupBanner(cfg)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Infof("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("  → Stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Infof("  Warning: HTTP server shutdown error: %v", err)
	} else {
		logger.Infof("  ✓ HTTP server stopped")
	}

	logger.Infof("  → Stopping reservation sweeper...")
	application.BackgroundServices.ReservationSweeper.Stop()
	logger.Infof("  ✓ Reservation sweeper stopped")

	logger.Infof("  → Closing database...")
	database.Close()
	logger.Infof("  ✓ Database closed")

	if cfg.Redis.Enabled {
		logger.Infof("  → Closing Redis...")
		pkgredis.Close()
		logger.Infof("  ✓ Redis closed")
	}

	logger.Infof("Shutdown complete")
}

// printStartupBanner 打印启动横幅
func printStartupBanner(cfg *config.Config) {
	logger.Infof("")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("FleetOps Spare Parts Server")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
	logger.Infof("Features:")
	logger.Infof("   • Technician limit checks with daily/monthly windows")
	logger.Infof("   • Multi-level approval with value-based level policy")
	logger.Infof("   • Time-bounded stock reservation with background sweeping")
	logger.Infof("   • Issuance, installation recording and cost reconciliation")
	logger.Infof("")
	logger.Infof("   API listening on :%d", cfg.Server.APIPort)
	logger.Infof("")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
}
