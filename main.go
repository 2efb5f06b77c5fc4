package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-engine-go/internal/api/handler"
	"career-engine-go/internal/api/router"
	"career-engine-go/internal/classifier"
	"career-engine-go/internal/config"
	"career-engine-go/internal/engine"
	appLogger "career-engine-go/internal/logger"
	"career-engine-go/internal/storage"
	"career-engine-go/internal/vectorizer"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储组件按可用性装配，核心引擎在任何组件缺席时都保持可用
	storageManager := storage.NewStorage(ctx, cfg, appLogger.Logger)
	defer storageManager.Close()
	glog.Info("存储服务初始化完成")

	// 外部协作方：分类器与向量化服务，两者都允许缺席
	var classifierClient engine.Classifier
	if c, err := classifier.NewHTTPClassifier(cfg.Classifier); err != nil {
		glog.Warnf("分类器客户端初始化失败，基准置信度将使用均匀分布: %v", err)
	} else {
		classifierClient = c
	}
	var vectorizerClient engine.Vectorizer
	if v, err := vectorizer.NewEmbeddingVectorizer(cfg.Vectorizer); err != nil {
		glog.Warnf("向量化客户端初始化失败，语义相似度将被省略: %v", err)
	} else {
		vectorizerClient = v
	}

	// 引擎核心装配
	extractor := engine.NewSkillExtractor()
	scorer := engine.NewATSRubricScorer(extractor)
	patternStore := storageManager.PatternStore()
	learning := engine.NewLearningEngine(patternStore)
	predictor := engine.NewCareerPredictor(classifierClient, patternStore,
		cfg.Engine.PatternWeight, cfg.Engine.MaxPredictions)
	matcher := engine.NewJobFitMatcher(vectorizerClient)

	engineHandler := handler.NewEngineHandler(cfg, storageManager,
		extractor, scorer, predictor, learning, matcher)
	glog.Info("引擎初始化完成")

	// 反馈消费worker
	go func() {
		if err := engineHandler.StartFeedbackConsumers(ctx); err != nil {
			glog.Errorf("反馈消费worker退出: %v", err)
		}
	}()

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s -> %d",
			string(ctx.Method()), string(ctx.Path()), ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, engineHandler)
	glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	cancel() // 先停消费worker

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog并把hertz的hlog桥接到同一实例
func initLogger(cfg *config.Config) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
}
