package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/handler"
	"github.com/agentcrew/backend/internal/pkg/database"
	"github.com/agentcrew/backend/internal/pkg/llm"
	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/router"
	"github.com/agentcrew/backend/internal/service/project"
	"github.com/agentcrew/backend/internal/service/video"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Video.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create video output directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 LLM Provider
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}

	// 初始化 Repository
	projectRepo := repository.NewProjectRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	videoJobRepo := repository.NewVideoJobRepository(db)

	// 事件总线供 SSE 推流订阅
	bus := eventbus.NewBus()

	// 初始化 Service
	projectService, err := project.NewService(cfg, provider, bus, projectRepo, recordRepo)
	if err != nil {
		log.Fatalf("Failed to initialize project service: %v", err)
	}
	defer projectService.Stop()

	videoService := video.NewService(cfg.Video, provider, videoJobRepo, bus)

	// 初始化 Handler
	collabHandler := handler.NewCollaborationHandler(projectService, bus)
	videoHandler := handler.NewVideoHandler(videoService, projectService)

	// 设置路由
	r := router.Setup(cfg, collabHandler, videoHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
