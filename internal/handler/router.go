package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// サービス
	CandidatService CandidatServiceInterface
	CreneauService  CreneauServiceInterface
	SessionService  SessionServiceInterface
	ResultatService ResultatServiceInterface
	QuestionService QuestionServiceInterface
	AdminService    AdminServiceInterface

	// 計測（nilの場合は記録しない）
	CandidatMetrics CandidatMetrics
	SessionMetrics  SessionMetrics
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → (公開ルート: RateLimit) / (管理ルート: Auth)
//
// 公開ルートは候補者が認証なしで利用する。登録とコード認証には
// それぞれ独立したレート制限クラスを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	candidatHandler := NewCandidatHandler(deps.CandidatService, deps.CandidatMetrics)
	creneauHandler := NewCreneauHandler(deps.CreneauService)
	sessionHandler := NewSessionHandler(deps.SessionService, deps.SessionMetrics)
	resultatHandler := NewResultatHandler(deps.ResultatService)
	questionHandler := NewQuestionHandler(deps.QuestionService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 公開ルート（候補者向け、認証不要） ---

	r.Route("/candidats", func(r chi.Router) {
		// 登録とコード認証は独立のレート制限クラス
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.InscriptionMiddleware()).Post("/inscription", candidatHandler.Inscrire)
			r.With(deps.RateLimiter.ConnexionMiddleware()).Post("/connexion", candidatHandler.Connexion)
		} else {
			r.Post("/inscription", candidatHandler.Inscrire)
			r.Post("/connexion", candidatHandler.Connexion)
		}
		r.Get("/search", candidatHandler.Rechercher)
		r.Get("/statut", candidatHandler.Statut)
	})

	// 予約可能な受験枠
	r.Get("/creneaux/disponibles", creneauHandler.ListerDisponibles)

	// 受験セッション（セッションコード認証後の候補者が利用）
	r.Route("/tests", func(r chi.Router) {
		r.Post("/demarrer", sessionHandler.Demarrer)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/questions", sessionHandler.Questions)
			r.Post("/reponses", sessionHandler.Repondre)
			r.Post("/terminer", sessionHandler.Terminer)
			r.Get("/temps-restant", sessionHandler.TempsRestant)
		})
	})

	// 採点結果（候補者が自分の結果を参照する）
	r.Route("/resultats", func(r chi.Router) {
		r.Get("/candidat/{id}", resultatHandler.ListerPourCandidat)
		r.Get("/session/{id}", resultatHandler.Detail)
	})

	// --- 管理ルート ---

	r.Route("/admin", func(r chi.Router) {
		// ログインのみ認証不要
		r.Post("/login", adminHandler.Login)

		// 以下はJWT認証必須
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

			r.Get("/me", adminHandler.Me)

			// 候補者管理
			r.Route("/candidats", func(r chi.Router) {
				r.Get("/", candidatHandler.Lister)
				r.Get("/en-attente", candidatHandler.EnAttente)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", candidatHandler.Get)
					r.Post("/valider", candidatHandler.Valider)
					r.Post("/rejeter", candidatHandler.Rejeter)
					r.Post("/envoyer-code", candidatHandler.RenvoyerCode)
				})
			})

			// 受験枠管理
			r.Route("/creneaux", func(r chi.Router) {
				r.Get("/", creneauHandler.ListerTous)
				r.Post("/", creneauHandler.Creer)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", creneauHandler.Get)
					r.Put("/", creneauHandler.Modifier)
					r.Delete("/", creneauHandler.Supprimer)
				})
			})

			// 質問バンク管理
			r.Route("/questions", func(r chi.Router) {
				r.Get("/", questionHandler.Lister)
				r.Post("/", questionHandler.Creer)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", questionHandler.Get)
					r.Put("/", questionHandler.Modifier)
					r.Delete("/", questionHandler.Supprimer)
				})
			})
			r.Get("/themes", questionHandler.ListerThemes)
			r.Get("/types-questions", questionHandler.ListerTypes)

			// テスト生成パラメータ
			r.Get("/parametres", questionHandler.ListerParametres)
			r.Put("/parametres/{nom}", questionHandler.ModifierParametre)

			// 結果と集計
			r.Route("/resultats", func(r chi.Router) {
				r.Get("/sessions", resultatHandler.Lister)
				r.Post("/export", resultatHandler.ExporterCSV)
			})
			r.Get("/stats", resultatHandler.Stats)
		})
	})

	return r
}
