// wgvpn-admin 트래픽 텔레메트리 & 이상 알림 백엔드
//
// 실행 구성:
//  1. config.Load: 환경변수(.env 선택) 로드
//  2. Postgres 연결 + 스키마 보장, Redis 집계 캐시 (선택)
//  3. service 조립: collector -> snapshot store, detector -> alert manager, 모두 Hub로 이벤트 발행
//     - ALERT_WEBHOOK_URLS가 있으면 알림을 외부 webhook으로도 전송
//  4. errgroup으로 HTTP 서버, Hub dispatcher, scheduler, demo producer 실행
//  5. SIGINT/SIGTERM 수신 시 전체 종료

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wellybot/wgvpn-admin/internal/cache"
	"github.com/wellybot/wgvpn-admin/internal/config"
	"github.com/wellybot/wgvpn-admin/internal/db"
	"github.com/wellybot/wgvpn-admin/internal/handler"
	"github.com/wellybot/wgvpn-admin/internal/metrics"
	"github.com/wellybot/wgvpn-admin/internal/service"
	"github.com/wellybot/wgvpn-admin/internal/stream"
	"github.com/wellybot/wgvpn-admin/internal/wgstatus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	pg := &db.Postgres{Pool: pool}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Redis가 없으면 nil 인터페이스로 넘겨 캐시 없이 동작
	var snapshots *service.SnapshotService
	if rc := cache.NewRedisCache(ctx, cfg.Redis); rc != nil {
		defer rc.Close()
		snapshots = service.NewSnapshotService(pg, rc)
	} else {
		snapshots = service.NewSnapshotService(pg, nil)
	}

	hub := stream.NewHub(cfg.Stream.QueueSize, cfg.Stream.SendBuffer)
	reader := wgstatus.NewReader(nil, cfg.Collector.Command, cfg.Collector.Interface, cfg.Collector.Timeout)

	alerts := service.NewAlertService(pg, pg, hub)
	if notifier := service.NewWebhookNotifier(cfg.Notifier); notifier.Enabled() {
		alerts.WithNotifier(notifier)
		log.Printf("Alert webhook notifier enabled (urls=%d, min_severity=%s)", len(cfg.Notifier.WebhookURLs), cfg.Notifier.MinSeverity)
	}
	collector := service.NewCollectorService(reader, pg, snapshots, hub, cfg.Collector, nil)
	detector := service.NewDetectorService(snapshots, alerts, pg, cfg.Detector, nil)
	scheduler := service.NewScheduler(collector, detector, cfg.Scheduler)
	demo := stream.NewDemoProducer(hub, pg, cfg.Stream.DemoInterval, nil)

	g, gctx := errgroup.WithContext(ctx)

	router := gin.Default()
	router.Use(metrics.Middleware())
	router.Use(handler.CORSMiddleware(cfg.Server.CORSAllowOrigins, true))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, handler.Handlers{
		Health:  handler.NewHealthHandler(pg),
		Traffic: handler.NewTrafficHandler(collector, snapshots),
		Alerts:  handler.NewAlertHandler(alerts, detector),
		Stream:  handler.NewStreamHandler(gctx, hub, cfg.Server.CORSAllowOrigins),
	}, cfg.Auth.JWTSecret)

	if cfg.Auth.JWTSecret == "" {
		log.Printf("Warning: JWT_SECRET is empty, API authentication disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		demo.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
	log.Printf("Server stopped")
}
