package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gamepal-social/apps/social-service/internal/converter"
	"gamepal-social/apps/social-service/internal/dao"
	"gamepal-social/apps/social-service/internal/handler"
	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/apps/social-service/internal/service"
	"gamepal-social/pkg/database"
	"gamepal-social/pkg/lifecycle"
	"gamepal-social/pkg/middleware"
	"gamepal-social/pkg/server"
	"gamepal-social/pkg/snowflake"
	"gamepal-social/pkg/telemetry"
)

func main() {
	serviceName := "social-service"

	// 初始化OpenTelemetry
	var otelConfig *telemetry.Config
	if os.Getenv("OTEL_DEBUG") == "true" {
		otelConfig = telemetry.DevelopmentConfig(serviceName)
		log.Printf("OpenTelemetry debug mode enabled - traces will be printed to console")
	} else {
		otelConfig = telemetry.DefaultConfig(serviceName)
		log.Printf("OpenTelemetry quiet mode - traces recorded but not printed")
	}

	if err := telemetry.InitGlobal(otelConfig); err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	// 确保在程序退出时关闭OpenTelemetry
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.ShutdownGlobal(ctx); err != nil {
			log.Printf("Failed to shutdown OpenTelemetry: %v", err)
		}
	}()

	log.Printf("OpenTelemetry initialized for %s", serviceName)

	// 加载扩展配置（邀请参数等）
	cfg, err := initConfig()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// 初始化全局雪花ID生成器
	if err := snowflake.InitGlobalSnowflake(cfg.GetInt64("social.machine_id")); err != nil {
		log.Fatalf("Failed to initialize snowflake: %v", err)
	}

	// 创建应用程序
	app := server.NewApplication(serviceName)

	// 启用HTTP和gRPC服务器
	app.EnableHTTP()
	app.EnableGRPC()

	// 获取PostgreSQL连接
	postgreSQL := app.GetPostgreSQL()

	// 自动迁移数据库表结构
	if err := postgreSQL.AutoMigrate(
		&model.Friend{},
		&model.FriendRequest{},
		&model.GameInvite{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化ElasticSearch连接
	esClient, err := database.NewElasticSearch(app.GetLogger())
	if err != nil {
		panic("Failed to connect to ElasticSearch: " + err.Error())
	}

	// 初始化DAO层
	socialDAO := dao.NewSocialDAO(postgreSQL)
	presenceDAO := dao.NewPresenceDAO(app.GetRedisClient())
	sessionDAO := dao.NewSessionDAO(app.GetMongoDB())
	directoryDAO := dao.NewDirectoryDAO(esClient.GetClient(), app.GetLogger())

	// 初始化Service层
	sessionFactory := service.NewSessionFactory(sessionDAO)
	socialService := service.NewService(
		socialDAO, presenceDAO, sessionDAO, directoryDAO,
		sessionFactory, app.GetKafkaProducer(), app.GetLogger())
	socialService.SetInviteTuning(
		cfg.GetDuration("social.invite.grace_delay"),
		cfg.GetDuration("social.invite.retention"))

	// 初始化Converter层
	socialConverter := converter.NewConverter()

	// 创建OpenTelemetry中间件
	otelMW := middleware.NewOTelMiddleware(serviceName, app.GetLogger())

	// 初始化Handler层
	httpHandler := handler.NewHTTPHandler(socialService, socialConverter, app.GetLogger())

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		// 添加OpenTelemetry中间件
		engine.Use(otelMW.GinMiddleware())

		httpHandler.RegisterRoutes(engine)
	})

	// 注册gRPC健康检查服务
	app.RegisterGRPCService(func(grpcSrv *grpc.Server) {
		healthpb.RegisterHealthServer(grpcSrv, health.NewServer())
	})

	// 过期邀请后台清理任务
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	app.AddLifecycleHook(lifecycle.Hook{
		Name:     "invite-sweeper",
		Priority: 300,
		OnStart: func(ctx context.Context) error {
			go socialService.RunInviteSweeper(sweepCtx, cfg.GetDuration("social.invite.sweep_interval"))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sweepCancel()
			return nil
		},
	})

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}

// initConfig 初始化扩展配置
func initConfig() (*viper.Viper, error) {
	cfg := viper.New()

	// 设置配置文件路径 - 从根目录读取
	cfg.SetConfigName("config")
	cfg.SetConfigType("yaml")
	cfg.AddConfigPath(".")
	cfg.AddConfigPath("..")
	cfg.AddConfigPath("../..")
	cfg.AddConfigPath("../../..")

	// 设置环境变量
	cfg.AutomaticEnv()

	// 设置默认值
	cfg.SetDefault("social.machine_id", 1)
	cfg.SetDefault("social.invite.grace_delay", model.InviteAcceptedGrace)
	cfg.SetDefault("social.invite.retention", model.InviteRetention)
	cfg.SetDefault("social.invite.sweep_interval", model.InviteSweepInterval)

	// 读取配置文件
	if err := cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，使用默认值
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	}

	return cfg, nil
}
