// Package notification は候補者へのセッションコード通知を提供する。
package notification

import (
	"context"
	"log/slog"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// Notifier は候補者への通知送信インターフェース。
type Notifier interface {
	// SendCodeSession は検証済み候補者にセッションコードを送信する。
	SendCodeSession(ctx context.Context, candidat *model.Candidat, code string) error
}

// MultiNotifier は複数のNotifierへ順に送信する。
// 一部のチャネルが失敗しても残りへの送信は続行し、最後のエラーを返す。
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier はMultiNotifierを生成する。
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// SendCodeSession は全チャネルへコードを送信する。
func (m *MultiNotifier) SendCodeSession(ctx context.Context, candidat *model.Candidat, code string) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.SendCodeSession(ctx, candidat, code); err != nil {
			slog.Error("通知チャネルへの送信に失敗しました",
				slog.String("candidat_id", candidat.ID),
				slog.String("error", err.Error()),
			)
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier は何も送信しないNotifier。通知設定が無い環境で使用する。
type NoopNotifier struct{}

// SendCodeSession は送信をスキップしたことをログに残す。
func (NoopNotifier) SendCodeSession(_ context.Context, candidat *model.Candidat, _ string) error {
	slog.Info("通知設定が無いためコード送信をスキップしました",
		slog.String("candidat_id", candidat.ID),
	)
	return nil
}

var (
	_ Notifier = (*MultiNotifier)(nil)
	_ Notifier = NoopNotifier{}
)
