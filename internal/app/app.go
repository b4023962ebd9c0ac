// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/admin"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/candidat"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/config"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/creneau"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/database"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/handler"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/logger"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/metrics"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/notification"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/question"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/resultat"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/testsession"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/worker/expiry"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildNotifier は設定済みの通知チャネルを合成する。
// メールとSMSのどちらも未設定の場合はログのみのNoopNotifierを返す。
func buildNotifier(cfg *config.Config) notification.Notifier {
	var notifiers []notification.Notifier
	if email := notification.NewEmailNotifier(cfg); email != nil {
		notifiers = append(notifiers, email)
	}
	if sms := notification.NewSMSNotifier(cfg); sms != nil {
		notifiers = append(notifiers, sms)
	}

	switch len(notifiers) {
	case 0:
		slog.Warn("aucun canal de notification configuré, les codes de session ne seront pas envoyés")
		return notification.NoopNotifier{}
	case 1:
		return notifiers[0]
	default:
		return notification.NewMultiNotifier(notifiers...)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	candidatRepo := repository.NewPostgresCandidatRepo(db)
	creneauRepo := repository.NewPostgresCreneauRepo(db)
	sessionRepo := repository.NewPostgresSessionTestRepo(db)
	questionRepo := repository.NewPostgresQuestionRepo(db)
	adminRepo := repository.NewPostgresAdministrateurRepo(db)
	paramRepo := repository.NewPostgresParametreRepo(db)

	// 3. メトリクスと通知チャネルの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	notifier := buildNotifier(cfg)

	// 4. ドメインサービスの初期化
	adminService := admin.NewService(adminRepo, cfg.JWTSecret, cfg.TokenMaxAge)
	candidatService := candidat.NewService(candidatRepo, creneauRepo, notifier)
	creneauService := creneau.NewService(creneauRepo)
	resultatService := resultat.NewService(sessionRepo)
	sessionService := testsession.NewService(
		sessionRepo, candidatRepo, creneauRepo, questionRepo, paramRepo,
		resultatService, cfg.NombreQuestionsParTheme, cfg.TempsQuestionParDefaut,
	)
	questionService := question.NewService(questionRepo, paramRepo)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitInscription, cfg.RateLimitConnexion),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     adminService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		CandidatService: candidatService,
		CreneauService:  creneauService,
		SessionService:  sessionService,
		ResultatService: resultatService,
		QuestionService: questionService,
		AdminService:    adminService,

		CandidatMetrics: collector,
		SessionMetrics:  collector,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッション回収ジョブを起動する。
// メトリクスは専用のHTTPエンドポイントで公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. 回収ジョブの初期化
	sessionRepo := repository.NewPostgresSessionTestRepo(db)
	resultatService := resultat.NewService(sessionRepo)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	job := expiry.NewExpiryJob(sessionRepo, resultatService, collector, slog.Default())

	// 3. メトリクス公開用HTTPサーバー
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("expiry_interval", cfg.ExpiryInterval),
	)

	// 回収ジョブをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.ExpiryInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
