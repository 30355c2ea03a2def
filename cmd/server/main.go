package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/config"
	"lokapasar-be/internal/coupon"
	"lokapasar-be/internal/db"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/notification"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/product"
	"lokapasar-be/internal/returns"
	"lokapasar-be/internal/settlement"
	"lokapasar-be/internal/transport/rest"
	"lokapasar-be/internal/user"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	txm := db.NewTxManager(database)
	gateway := payment.NewXenditGateway(cfg.PaymentAPIKey)
	notifier := notification.NewLogNotifier()
	guard := inventory.NewGuard()

	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	couponRepo := coupon.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	orderRepo := order.NewRepository(database)
	returnRepo := returns.NewRepository(database)
	settlementRepo := settlement.NewRepository(database)
	userRepo := user.NewRepository(database)

	userSvc := user.NewService(userRepo)
	couponSvc := coupon.NewService(couponRepo)
	orderSvc := order.NewService(
		orderRepo, productRepo, cartRepo, couponRepo, paymentRepo,
		gateway, guard, notifier, txm, cfg.DefaultShippingFee,
	)
	returnSvc := returns.NewService(
		returnRepo, orderRepo, paymentRepo, gateway, guard, notifier, txm,
	)
	settlementSvc := settlement.NewService(settlementRepo)

	router := rest.NewRouter(rest.Handlers{
		Auth:       rest.NewAuthHandler(userSvc),
		Cart:       rest.NewCartHandler(cartRepo),
		Order:      rest.NewOrderHandler(orderSvc),
		Coupon:     rest.NewCouponHandler(couponSvc),
		Return:     rest.NewReturnHandler(returnSvc),
		Settlement: rest.NewSettlementHandler(settlementSvc),
		Webhook:    rest.NewWebhookHandler(orderSvc, gateway),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
