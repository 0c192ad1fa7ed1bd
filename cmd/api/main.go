package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/config"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/handler"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/infra/db"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/infra/memory"
	infraRepo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/infra/repository"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/notification"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/server"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 保存先ごとの部品
type storage struct {
	tx      repository.TransactionManager
	carts   repository.CartRepository
	catalog repository.CatalogRepository
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続（memoryなら起動のたびに空から）
	st, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer st.close()

	//通知
	var wg sync.WaitGroup
	sinks, closeSinks := openSinks(ctx, cfg, &wg)
	gateway := notification.NewAsyncGateway(notification.AsyncConfig{}, sinks...)

	//Usecase生成
	pricing := usecase.Pricing{
		FlatShippingFee:       cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		TaxRate:               cfg.TaxRate,
	}
	retry := usecase.RetryPolicy{
		MaxTries:        cfg.RetryMaxTries,
		InitialInterval: cfg.RetryInitial,
		MaxInterval:     cfg.RetryMax,
	}
	checkoutUC := usecase.NewCheckoutUsecase(st.tx, pricing, gateway)
	orderUC := usecase.NewOrderUsecase(st.tx)
	lifecycleUC := usecase.NewOrderLifecycleUsecase(st.tx, gateway, retry)
	cartUC := usecase.NewCartUsecase(st.carts, st.catalog)
	catalogUC := usecase.NewCatalogUsecase(st.tx, st.catalog)
	auditLogUC := usecase.NewAuditLogUsecase(st.tx)

	//Handler生成
	e := server.New(cfg.JWTSecret, server.Handlers{
		Orders:      handler.NewOrderHandler(checkoutUC, orderUC, lifecycleUC),
		AdminOrders: handler.NewAdminOrderHandler(orderUC, lifecycleUC),
		Cart:        handler.NewCartHandler(cartUC),
		Catalog:     handler.NewCatalogHandler(catalogUC),
		AuditLogs:   handler.NewAdminAuditLogHandler(auditLogUC),
	})

	//Server起動
	if err := server.Run(ctx, e, cfg.Addr()); err != nil {
		log.Error().Err(err).Msg("Server failed")
	}

	// 残っている通知を流してから止める
	stop()
	gateway.Close()
	wg.Wait()
	closeSinks()
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.IsProd() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "order-core").Logger()
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.Storage == config.StorageMemory {
		s := memory.NewStore()
		seedDemoCatalog(s)
		logDemoTokens(cfg)
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return storage{tx: s, carts: s.Carts(), catalog: s.Catalog(), close: func() {}}, nil
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return storage{}, err
	}
	gormDB, err := db.Connect(ctx, cfg.PostgresURL())
	if err != nil {
		return storage{}, err
	}
	log.Info().Msg("Connected to PostgreSQL")

	return storage{
		tx:      infraRepo.NewTxManagerGorm(gormDB),
		carts:   infraRepo.NewCartGormRepository(gormDB),
		catalog: infraRepo.NewCatalogGormRepository(gormDB),
		close: func() {
			if err := db.Close(gormDB); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
				return
			}
			log.Info().Msg("Database connection closed")
		},
	}, nil
}

// Redisがあればキュー + メール送信worker、Kafkaがあればイベント送信。どちらも無ければログだけ。
func openSinks(ctx context.Context, cfg config.Config, wg *sync.WaitGroup) ([]notification.Sink, func()) {
	var sinks []notification.Sink
	var closers []func()

	if cfg.RedisURL != "" {
		client, err := notification.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Redis unavailable; mail notifications disabled")
		} else {
			queue := notification.NewRedisQueue(client, "")
			sinks = append(sinks, queue)

			dispatcher := notification.NewMailDispatcher(queue, notification.LogMailer{}, notification.DispatcherConfig{})
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = dispatcher.Run(ctx)
			}()
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := notification.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, kafkaSink)
		closers = append(closers, func() {
			if err := kafkaSink.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close kafka writer")
			}
		})
	}

	if len(sinks) == 0 {
		sinks = append(sinks, notification.LogSink{})
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// 開発用の商品
func seedDemoCatalog(s *memory.Store) {
	s.PutItem(&model.Vehicle{
		ID: 1, Make: "Toyota", Model: "Corolla", ModelYear: 2021,
		VIN: "JTDBR32E720000001", Price: 3000000, Stock: 3, IsAvailable: true,
	})
	s.PutItem(&model.Vehicle{
		ID: 2, Make: "Honda", Model: "Vezel", ModelYear: 2019,
		VIN: "JHMRU18509C000002", Price: 2450000, Stock: 1, IsAvailable: true,
	})
	s.PutItem(&model.Part{
		ID: 1, Name: "Brake pad set", SKU: "BP-CRL-01", Manufacturer: "Akebono",
		Price: 1200, Stock: 50, IsAvailable: true,
	})
	s.PutItem(&model.Part{
		ID: 2, Name: "Oil filter", SKU: "OF-UNI-02", Manufacturer: "Denso",
		Price: 850, Stock: 120, IsAvailable: true,
	})
}

// memoryモードで叩けるように、開発用トークンをログに出す
func logDemoTokens(cfg config.Config) {
	if cfg.IsProd() {
		return
	}
	now := time.Now()
	user, err := middleware.SignToken(cfg.JWTSecret, 1, middleware.RoleUser, 24*time.Hour, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign demo token")
		return
	}
	admin, err := middleware.SignToken(cfg.JWTSecret, 100, middleware.RoleAdmin, 24*time.Hour, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign demo token")
		return
	}
	log.Info().Str("user_token", user).Str("admin_token", admin).Msg("Demo tokens (user 1, admin 100)")
}
