// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とワーカーから利用する。
type MetricsCollector interface {
	RecordInscription()
	RecordValidation()
	RecordSessionDemarree()
	RecordSessionTerminee(pourcentage int)
	RecordSessionExpiree()
	RecordNotificationEchec(canal string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	inscriptions      prometheus.Counter
	validations       prometheus.Counter
	sessionsDemarrees prometheus.Counter
	sessionsTerminees prometheus.Counter
	sessionsExpirees  prometheus.Counter
	pourcentages      prometheus.Histogram
	notificationEchec *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		inscriptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testplatform_inscriptions_total",
			Help: "候補者登録の合計数",
		}),
		validations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testplatform_validations_total",
			Help: "候補者検証（コード発行）の合計数",
		}),
		sessionsDemarrees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testplatform_sessions_demarrees_total",
			Help: "開始された受験セッションの合計数",
		}),
		sessionsTerminees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testplatform_sessions_terminees_total",
			Help: "候補者操作で終了した受験セッションの合計数",
		}),
		sessionsExpirees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testplatform_sessions_expirees_total",
			Help: "締切超過で自動終了した受験セッションの合計数",
		}),
		pourcentages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "testplatform_score_pourcentage",
			Help:    "終了セッションのスコア百分率の分布",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		notificationEchec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testplatform_notification_echec_total",
			Help: "チャネル別の通知失敗数",
		}, []string{"canal"}),
	}

	reg.MustRegister(
		c.inscriptions,
		c.validations,
		c.sessionsDemarrees,
		c.sessionsTerminees,
		c.sessionsExpirees,
		c.pourcentages,
		c.notificationEchec,
	)

	return c
}

// RecordInscription は候補者登録を記録する。
func (c *Collector) RecordInscription() {
	c.inscriptions.Inc()
}

// RecordValidation は候補者検証を記録する。
func (c *Collector) RecordValidation() {
	c.validations.Inc()
}

// RecordSessionDemarree はセッション開始を記録する。
func (c *Collector) RecordSessionDemarree() {
	c.sessionsDemarrees.Inc()
}

// RecordSessionTerminee はセッション終了とスコア百分率を記録する。
func (c *Collector) RecordSessionTerminee(pourcentage int) {
	c.sessionsTerminees.Inc()
	c.pourcentages.Observe(float64(pourcentage))
}

// RecordSessionExpiree は締切超過による自動終了を記録する。
func (c *Collector) RecordSessionExpiree() {
	c.sessionsExpirees.Inc()
}

// RecordNotificationEchec はチャネル別の通知失敗を記録する。
func (c *Collector) RecordNotificationEchec(canal string) {
	c.notificationEchec.WithLabelValues(canal).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var _ MetricsCollector = (*Collector)(nil)
