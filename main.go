package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"forum/internal/bootstrap"
	"forum/internal/config"
	"forum/internal/routes"
	"forum/internal/services"
	"forum/internal/utils"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if err := utils.InitLogger(&cfg.Log); err != nil {
		log.Fatal("初始化日志失败:", err)
	}
	defer func() { _ = utils.CloseLogger() }()
	logger := utils.GetLogger()

	db, err := services.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("数据库初始化失败", "error", err.Error())
	}

	redisClient, err := services.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		// Redis 只用于缓存，连不上时降级为进程内缓存
		logger.Warn("Redis 连接失败，使用进程内缓存", "addr", cfg.Redis.Addr, "error", err.Error())
		redisClient = nil
	}

	ctn, err := bootstrap.New(cfg, db, redisClient)
	if err != nil {
		logger.Fatal("初始化应用容器失败", "error", err.Error())
	}
	defer ctn.Close()

	if err := ctn.InitAdminAccounts(context.Background()); err != nil {
		logger.Fatal("初始化管理员账号失败", "error", err.Error())
	}

	// 设置路由
	r := routes.SetupRoutes(cfg, ctn)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	// 启动服务
	go func() {
		logger.Info("服务器启动", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("收到退出信号，开始优雅关闭", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭超时", "error", err.Error())
	}
	logger.Info("服务器已退出")
}
