package notification

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/config"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// smsSender はTwilio APIのメッセージ作成を抽象化する。テストで差し替える。
type smsSender interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// SMSNotifier はTwilio経由でセッションコードをSMS送信する。
type SMSNotifier struct {
	sender smsSender
	from   string
}

// NewSMSNotifier はSMSNotifierを生成する。
// Twilioの資格情報が未設定の場合はnilを返し、SMS通知は無効になる。
func NewSMSNotifier(cfg *config.Config) *SMSNotifier {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &SMSNotifier{
		sender: client.Api,
		from:   cfg.TwilioFromNumber,
	}
}

// SendCodeSession はセッションコードを候補者のGSM番号に送信する。
func (n *SMSNotifier) SendCodeSession(ctx context.Context, candidat *model.Candidat, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf("Votre code de session pour le test en ligne : %s", code)

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(candidat.Gsm)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.sender.CreateMessage(params); err != nil {
		return fmt.Errorf("SMSの送信に失敗しました: %w", err)
	}
	return nil
}

var _ Notifier = (*SMSNotifier)(nil)
