package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/config"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// EmailNotifier はSMTP経由でセッションコードをメール送信する。
type EmailNotifier struct {
	host string
	port string
	user string
	pass string
	from string

	// sendFunc はテストで差し替えるための送信関数。
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier はEmailNotifierを生成する。
// SMTP_HOSTが未設定の場合はnilを返し、メール通知は無効になる。
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &EmailNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		from:     cfg.SMTPFrom,
		sendFunc: smtp.SendMail,
	}
}

// SendCodeSession はセッションコードを候補者のメールアドレスに送信する。
func (n *EmailNotifier) SendCodeSession(ctx context.Context, candidat *model.Candidat, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "Votre code de session - Test en ligne"
	body := fmt.Sprintf(
		"Bonjour %s %s,\n\n"+
			"Votre inscription a été validée.\n"+
			"Votre code de session est : %s\n\n"+
			"Utilisez ce code pour vous connecter à la plateforme le jour de votre créneau.\n\n"+
			"Cordialement,\nL'équipe du test en ligne",
		candidat.Prenom, candidat.Nom, code,
	)

	var msg strings.Builder
	msg.WriteString("From: " + n.from + "\r\n")
	msg.WriteString("To: " + candidat.Email + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}

	addr := n.host + ":" + n.port
	if err := n.sendFunc(addr, auth, n.from, []string{candidat.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("メールの送信に失敗しました: %w", err)
	}
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
