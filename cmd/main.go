package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-advisor/internal/api/handler"
	"resume-advisor/internal/api/router"
	"resume-advisor/internal/config"
	"resume-advisor/internal/llm"
	appCoreLogger "resume-advisor/internal/logger"
	"resume-advisor/internal/outbox"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	if err := initLogger(cfg.Logger); err != nil {
		glog.Fatalf("初始化日志失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Warnf("初始化链路追踪失败, 继续运行: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	analyzer, err := buildAnalyzer(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化分析器失败: %v", err)
	}

	dispatcher, err := parser.NewDispatcher(ctx, parser.WithDispatcherLogger(appCoreLogger.StdLogger("[Dispatcher] ")))
	if err != nil {
		glog.Fatalf("创建文档解析器失败: %v", err)
	}

	// 存储组件为 nil 时不注入, 避免接口持有类型化的空指针
	components := []processor.ComponentOpt{
		processor.WithcompAnalyzer(analyzer),
		processor.WithcompExtractor(dispatcher),
	}
	if storageManager.MySQL != nil {
		components = append(components, processor.WithcompSubmissions(storageManager.MySQL))
	}
	if storageManager.MinIO != nil {
		components = append(components, processor.WithcompFiles(storageManager.MinIO))
	}
	if storageManager.Redis != nil {
		components = append(components, processor.WithcompCache(storageManager.Redis))
	}

	serviceLogger := appCoreLogger.Logger.With().Str("component", "analysis_service").Logger()
	service := processor.NewAnalysisService(components, processor.SettingsFromConfig(cfg), &serviceLogger)

	handlerLogger := appCoreLogger.Logger.With().Str("component", "http").Logger()
	analysisHandler := handler.NewAnalysisHandler(service, &handlerLogger)

	var messageRelay *outbox.MessageRelay
	stopConsumers := func() {}
	if storageManager.AsyncReady() {
		messageRelay = outbox.NewMessageRelay(
			storageManager.MySQL.DB(),
			storageManager.RabbitMQ,
			appCoreLogger.StdLogger("[MessageRelay] "),
			outbox.WithPollingInterval(config.GetDuration(cfg.Outbox.PollInterval, 2*time.Second)),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxRetries(cfg.Outbox.MaxRetries),
		)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")

		stopConsumers, err = analysisHandler.StartAnalysisConsumers(
			storageManager.RabbitMQ,
			cfg.RabbitMQ.AnalysisQueue,
			cfg.RabbitMQ.PrefetchCount,
			cfg.Analysis.ConsumerWorkers,
		)
		if err != nil {
			glog.Fatalf("启动分析消费者失败: %v", err)
		}
	} else {
		glog.Warn("存储组件不完整, 异步提交接口不可用, 仅提供同步分析")
	}

	serverTracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes())+(1<<20)),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, analysisHandler, cfg.Auth)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	stopConsumers()
	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(c config.LoggerConfig) error {
	if err := appCoreLogger.Init(appCoreLogger.Config{
		Level:        c.Level,
		Format:       c.Format,
		TimeFormat:   c.TimeFormat,
		ReportCaller: c.ReportCaller,
		FilePath:     c.FilePath,
	}); err != nil {
		return err
	}

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	if c.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
	return nil
}

// buildAnalyzer 配置了外部模型时附加生成器, 否则只用本地规则
func buildAnalyzer(ctx context.Context, cfg *config.Config) (*processor.ResumeAnalyzer, error) {
	analyzerLogger := appCoreLogger.Logger.With().Str("component", "analyzer").Logger()
	opts := []processor.AnalyzerOption{
		processor.WithDefaultJobCategory(cfg.Analysis.DefaultJobCategory),
		processor.WithAnalyzerLogger(&analyzerLogger),
	}

	if cfg.Analysis.UseLLM && cfg.LLM.Enabled() {
		chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		generator := parser.NewLLMReportGenerator(
			chatModel,
			appCoreLogger.StdLogger("[ReportGenerator] "),
			parser.WithModelOptions(llm.DefaultOptions(cfg.LLM)...),
		)
		opts = append(opts,
			processor.WithExternalGenerator(generator),
			processor.WithExternalTimeout(config.GetDuration(cfg.LLM.Timeout, 60*time.Second)),
		)
		glog.Infof("外部分析已启用: provider=%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)
	} else {
		glog.Info("未配置外部模型, 使用本地规则分析")
	}

	return processor.NewResumeAnalyzer(opts...), nil
}
