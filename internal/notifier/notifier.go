// notifier — контракт внешней доставки уведомлений (письма со ссылкой
// сброса пароля). Доставка best-effort: отправитель не даёт обратной связи,
// ошибки доставки не влияют на результат операции.
package notifier

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/go-blog-platform/internal/pkg/redact"
)

// Notifier принимает получателя, тему и тело письма.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier — реализация по умолчанию: пишет факт отправки в лог.
// Используется в local/dev окружениях и как заглушка, пока не подключён
// реальный почтовый шлюз.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}

	return &LogNotifier{log: l}
}

// Send логирует отправку; тело письма (содержит токен) в лог не попадает.
func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.log.Info("notification_sent",
		slog.String("to", redact.Email(to)),
		slog.String("subject", subject),
	)

	return nil
}

var _ Notifier = (*LogNotifier)(nil)
