package notification

import (
	"context"
	"errors"
	"fmt"

	"yangbot/model"
	"yangbot/timeutil"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier delivers a rendered notification to one target.
type Notifier interface {
	Push(ctx context.Context, to, text string) error
}

// LineNotifier pushes notifications through the LINE Messaging API.
type LineNotifier struct {
	bot *messaging_api.MessagingApiAPI
}

func NewLineNotifier(bot *messaging_api.MessagingApiAPI) *LineNotifier {
	return &LineNotifier{bot: bot}
}

func (n *LineNotifier) Push(_ context.Context, to, text string) error {
	_, err := n.bot.PushMessage(&messaging_api.PushMessageRequest{
		To: to,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// BuildNotificationMessage renders the push text for a qualifying task.
func BuildNotificationMessage(task model.Task) string {
	if task.ExpireDate != nil {
		return fmt.Sprintf("⏰ 提醒：%s（到期時間 %s）", task.Message, timeutil.DisplayString(*task.ExpireDate))
	}
	return fmt.Sprintf("⏰ 提醒：%s", task.Message)
}
