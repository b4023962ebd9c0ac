package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	InscriptionRate  rate.Limit    // 候補者登録のレート（req/sec）
	InscriptionBurst int           // 候補者登録のバーストサイズ
	ConnexionRate    rate.Limit    // コードログインのレート（req/sec）
	ConnexionBurst   int           // コードログインのバーストサイズ
	CleanupInterval  time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig はreq/min指定からレート制限設定を生成する。
// 公開エンドポイントはIP単位で制限する。コードの総当たり対策でもある。
func NewRateLimiterConfig(inscriptionPerMin, connexionPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		InscriptionRate:  rate.Limit(float64(inscriptionPerMin) / 60.0),
		InscriptionBurst: inscriptionPerMin,
		ConnexionRate:    rate.Limit(float64(connexionPerMin) / 60.0),
		ConnexionBurst:   connexionPerMin,
		CleanupInterval:  5 * time.Minute,
	}
}

// ipLimiter はIPごとのレートリミッターとアクセス時刻を保持する。
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はIPごとのレート制限を管理する。
// 候補者登録とコードログインの2種類を独立に提供する。
type RateLimiter struct {
	config RateLimiterConfig

	inscriptionMu       sync.RWMutex
	inscriptionLimiters map[string]*ipLimiter

	connexionMu       sync.RWMutex
	connexionLimiters map[string]*ipLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:              config,
		inscriptionLimiters: make(map[string]*ipLimiter),
		connexionLimiters:   make(map[string]*ipLimiter),
		stopCh:              make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// InscriptionMiddleware は候補者登録のレート制限ミドルウェアを返す。
func (rl *RateLimiter) InscriptionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreateLimiter(&rl.inscriptionMu, rl.inscriptionLimiters,
				ip, rl.config.InscriptionRate, rl.config.InscriptionBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.InscriptionRate)
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("limit_type", "inscription"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ConnexionMiddleware はコードログインのレート制限ミドルウェアを返す。
// 候補者登録の制限とは独立に動作する。
func (rl *RateLimiter) ConnexionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreateLimiter(&rl.connexionMu, rl.connexionLimiters,
				ip, rl.config.ConnexionRate, rl.config.ConnexionBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.ConnexionRate)
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("limit_type", "connexion"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// InscriptionLimiterCount は現在管理されている登録リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) InscriptionLimiterCount() int {
	rl.inscriptionMu.RLock()
	defer rl.inscriptionMu.RUnlock()
	return len(rl.inscriptionLimiters)
}

// ConnexionLimiterCount は現在管理されているログインリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ConnexionLimiterCount() int {
	rl.connexionMu.RLock()
	defer rl.connexionMu.RUnlock()
	return len(rl.connexionLimiters)
}

// getOrCreateLimiter はIPのリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(mu *sync.RWMutex, limiters map[string]*ipLimiter, ip string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	il, exists := limiters[ip]
	mu.RUnlock()

	if exists {
		mu.Lock()
		il.lastAccess = time.Now()
		mu.Unlock()
		return il.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if il, exists := limiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[ip] = &ipLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.inscriptionMu.Lock()
	for ip, il := range rl.inscriptionLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.inscriptionLimiters, ip)
		}
	}
	rl.inscriptionMu.Unlock()

	rl.connexionMu.Lock()
	for ip, il := range rl.connexionLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.connexionLimiters, ip)
		}
	}
	rl.connexionMu.Unlock()
}

// clientIP はリクエスト元IPを返す。リバースプロキシ背後ではX-Forwarded-Forを優先する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// 先頭が元クライアント
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "TROP_DE_REQUETES",
		"message":  "Trop de requêtes. Veuillez réessayer plus tard.",
		"category": "system",
		"action":   "Patientez avant de réessayer.",
	})
}
