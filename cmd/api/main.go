package main

import (
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logger"
	"app/internal/notification"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envはローカル用。無くても環境変数があれば動く。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.GoEnv == "dev"); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Festival{},
		&model.FestivalProduct{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.Payment{},
		&model.AuditLog{},
		&model.InventoryAdjustment{},
	); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	festivalRepo := infraRepo.NewFestivalGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//通知。Kafkaが設定されていればKafka、無ければログのみ。
	var notifier notification.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic)
		defer kn.Close()
		notifier = kn
		log.Info("kafka notifier enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.NotifyTopic))
	} else {
		notifier = notification.NewLogNotifier(log)
	}

	//Usecase
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, notifier, log)
	orderStatusUC := usecase.NewOrderStatusUsecase(txManager, auditRepo, notifier, log)
	paymentUC := usecase.NewPaymentUsecase(txManager, notifier, log)
	festivalUC := usecase.NewFestivalUsecase(festivalRepo, productRepo, auditRepo)

	//Handler
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(cfg, authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC, orderStatusUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Festival:     handler.NewFestivalHandler(festivalUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(orderUC, orderStatusUC),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, authUC),
	}

	e := server.New(cfg, log)
	server.RegisterRoutes(e, cfg, h, userRepo)

	log.Info("starting server", zap.String("port", cfg.Port))
	if err := server.Start(e, cfg); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
