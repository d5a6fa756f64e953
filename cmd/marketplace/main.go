// @title           Marketplace Orders API
// @version         1.0
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/MikeMC777/marketplace-ordenes/internal/cart"
	"github.com/MikeMC777/marketplace-ordenes/internal/config"
	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/database"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
	"github.com/MikeMC777/marketplace-ordenes/internal/logger"
	"github.com/MikeMC777/marketplace-ordenes/internal/notify"
	"github.com/MikeMC777/marketplace-ordenes/internal/order"
	"github.com/MikeMC777/marketplace-ordenes/internal/session"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

const cartTTL = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	log := logger.L
	log.Info("config loaded", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userRepo   user.Repository   = user.NewMemRepo()
		itemStore  inventory.Store   = inventory.NewMemory()
		couponRepo coupon.Repository = coupon.NewMemRepo()
		orderRepo  order.Repository  = order.NewMemRepo()
		sessions   session.Backend   = session.NewMemory()
		carts      cart.Store        = cart.NewMemory()
		sinks                        = []notify.Sink{notify.LogSink{Log: log}}
	)

	if cfg.PostgresDSN != "" {
		pool, err := database.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
		userRepo = user.NewPGRepo(pool)
		itemStore = inventory.NewPGStore(pool)
		couponRepo = coupon.NewPGRepo(pool)
		orderRepo = order.NewPGRepo(pool)
		sessions = session.NewPG(pool)
		log.Info("using postgres storage")
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis", "err", err)
			os.Exit(1)
		}
		sessions = session.NewRedis(rdb, cfg.TokenTTL)
		carts = cart.NewRedis(rdb, cartTTL)
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.EventsChannel))
		log.Info("using redis for sessions, carts and events", "channel", cfg.EventsChannel)
	}

	dispatcher := notify.NewDispatcher(cfg.NotifyWorkers, sinks...)
	defer dispatcher.Shutdown()

	store := session.NewStore(sessions, userRepo, cfg.JWTSecret, cfg.TokenTTL)
	ledger := inventory.NewLedger(itemStore)
	coupons := coupon.NewService(couponRepo)
	a := &app{
		users:    user.NewService(userRepo, store),
		sessions: store,
		ledger:   ledger,
		carts:    carts,
		coupons:  coupons,
		orders: order.NewEngine(order.Deps{
			Repo:      orderRepo,
			Inventory: ledger,
			Carts:     carts,
			Coupons:   coupons,
			Notifier:  dispatcher,
		}),
	}

	if cfg.AppEnv == "production" || cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, healthSrv := newGRPCServer()
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}
	go func() {
		log.Info("grpc health listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", "err", err)
		}
	}()
	go func() {
		log.Info("marketplace listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	grpcSrv.GracefulStop()
	a.orders.Wait()
}
