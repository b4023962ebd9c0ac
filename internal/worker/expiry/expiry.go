// Package expiry は締切を超過した受験セッションの自動終了ジョブを提供する。
// 候補者が終了操作をしないまま締切を過ぎたセッションを定期バッチで回収し、
// 保存済み回答のまま採点を確定する。
package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// SessionClaimer は期限切れセッションの検出と回収を抽象化するインターフェース。
type SessionClaimer interface {
	// ListExpiredIDs は締切を超過した未終了セッションのIDを最大limit件返す。
	ListExpiredIDs(ctx context.Context, limit int) ([]string, error)
	// ClaimCompletion はセッションを終了状態に遷移させる。
	// enforceDeadlineがfalseの場合は締切超過でも回収できる。
	ClaimCompletion(ctx context.Context, sessionID string, enforceDeadline bool) (bool, error)
}

// Scorer はセッションの採点を確定するインターフェース。
type Scorer interface {
	Finalize(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error)
}

// MetricsRecorder は期限切れセッションの計測インターフェース。
type MetricsRecorder interface {
	RecordSessionExpiree()
}

// ExpiryJob は期限切れセッションの自動終了ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な回収処理を保証する。
type ExpiryJob struct {
	sessions  SessionClaimer
	scorer    Scorer
	collector MetricsRecorder
	logger    *slog.Logger
	BatchSize int // 1サイクルで回収する最大セッション数（デフォルト: 100）
}

// NewExpiryJob は新しいExpiryJobを生成する。
// collectorはnilでもよい。デフォルトのバッチサイズは100。
func NewExpiryJob(sessions SessionClaimer, scorer Scorer, collector MetricsRecorder, logger *slog.Logger) *ExpiryJob {
	return &ExpiryJob{
		sessions:  sessions,
		scorer:    scorer,
		collector: collector,
		logger:    logger,
		BatchSize: 100,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *ExpiryJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("期限切れセッション回収ジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("batch_size", j.BatchSize),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("回収サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("期限切れセッション回収ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("回収サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は期限切れセッションを1回検出し、順次回収と採点を実行する。
// 回収に失敗したセッションは次のサイクルで再度対象になる。
func (j *ExpiryJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	ids, err := j.sessions.ListExpiredIDs(ctx, j.BatchSize)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	j.logger.Info("回収サイクルを開始します",
		slog.Int("session_count", len(ids)),
	)

	claimed := 0
	for _, id := range ids {
		ok, err := j.sessions.ClaimCompletion(ctx, id, false)
		if err != nil {
			j.logger.Error("セッションの回収に失敗しました",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		// 候補者が並行して終了した場合は回収不要
		if !ok {
			continue
		}

		if _, _, err := j.scorer.Finalize(ctx, id); err != nil {
			j.logger.Error("回収セッションの採点に失敗しました",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		claimed++
		if j.collector != nil {
			j.collector.RecordSessionExpiree()
		}
	}

	duration := time.Since(start)
	j.logger.Info("回収サイクルが完了しました",
		slog.Int("session_count", len(ids)),
		slog.Int("claimed_count", claimed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
