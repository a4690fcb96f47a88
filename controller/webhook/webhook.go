package webhook

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"yangbot/database"
	"yangbot/services"
	"yangbot/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const introductionText = "你好！我是家庭小幫手 YangBot 🤖。\n" +
	"你可以在群組或聊天室中標註我，並使用以下指令來設定提醒：\n" +
	"@YangBot 提醒 <你的提醒事項>\n" +
	"例如：@YangBot 提醒 買牛奶\n" +
	"我會幫你設定一個提醒，並讓你選擇提醒的日期和時間。"

type Handler struct {
	service       *services.TaskService
	bot           *messaging_api.MessagingApiAPI
	channelSecret string
}

func WebhookController(router *gin.Engine, service *services.TaskService, bot *messaging_api.MessagingApiAPI, channelSecret string) {
	h := &Handler{service: service, bot: bot, channelSecret: channelSecret}
	router.POST("/callback", h.Callback)
}

func (h *Handler) Callback(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			c.String(400, "Invalid signature")
			return
		}
		c.String(500, "Failed to parse request")
		return
	}

	for _, event := range cb.Events {
		switch e := event.(type) {
		case webhook.MessageEvent:
			h.handleMessage(e)
		case webhook.PostbackEvent:
			h.handlePostback(e)
		}
	}

	c.String(200, "OK")
}

func (h *Handler) handleMessage(e webhook.MessageEvent) {
	msg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		return
	}
	if !mentionsBot(msg.Mention) {
		log.Println("Not tag bot, ignore message")
		return
	}

	fields := strings.Fields(msg.Text)
	// fields[0] is the @bot tag itself
	if len(fields) < 2 {
		h.replyText(e.ReplyToken, introductionText)
		return
	}

	switch fields[1] {
	case "提醒":
		h.handleRemindCommand(e, fields)
	case "刪除":
		h.handleDeleteCommand(e, fields)
	default:
		h.replyText(e.ReplyToken, introductionText)
	}
}

// handleRemindCommand creates a task and replies with a datetime picker for
// its expire date. Ex. "@YangBot 提醒 買牛奶"
func (h *Handler) handleRemindCommand(e webhook.MessageEvent, fields []string) {
	if len(fields) < 3 {
		h.replyText(e.ReplyToken, introductionText)
		return
	}
	message := strings.Join(fields[2:], " ")
	sourceID, notifiedID := resolveSource(e.Source)

	ctx := context.Background()
	taskID, err := h.service.CreateTask(ctx, message, sourceID, notifiedID)
	if err != nil {
		log.Printf("Failed to create task: %v", err)
		h.replyText(e.ReplyToken, "建立提醒失敗，請稍後再試。")
		return
	}

	data := "taskId=" + url.QueryEscape(taskID) + "&field=expireDate"
	h.replyDatetimePicker(e.ReplyToken, data, "設定到期日", message, timeutil.PickerSeed(e.Timestamp))
}

func (h *Handler) handleDeleteCommand(e webhook.MessageEvent, fields []string) {
	if len(fields) < 3 {
		h.replyText(e.ReplyToken, introductionText)
		return
	}
	if err := h.service.DeleteTask(context.Background(), fields[2]); err != nil {
		log.Printf("Failed to delete task %s: %v", fields[2], err)
		h.replyText(e.ReplyToken, "刪除提醒失敗，請稍後再試。")
		return
	}
	h.replyText(e.ReplyToken, "提醒已刪除。")
}

func (h *Handler) handlePostback(e webhook.PostbackEvent) {
	if e.Postback == nil {
		return
	}
	values, err := url.ParseQuery(e.Postback.Data)
	if err != nil || values.Get("taskId") == "" {
		log.Printf("Ignoring malformed postback data: %q", e.Postback.Data)
		return
	}
	taskID := values.Get("taskId")

	at, err := timeutil.ToUTC(e.Postback.Params["datetime"])
	if err != nil {
		h.replyText(e.ReplyToken, "日期格式錯誤，請重新選擇。")
		return
	}

	switch values.Get("field") {
	case "expireDate":
		h.handleExpireDatePostback(e, taskID, at)
	case "notifyDate":
		h.handleNotifyDatePostback(e, taskID, at)
	}
}

func (h *Handler) handleExpireDatePostback(e webhook.PostbackEvent, taskID string, at time.Time) {
	task, err := h.service.SetExpireDate(context.Background(), taskID, at)
	if err != nil {
		h.replyText(e.ReplyToken, rejectionText(err, "到期"))
		return
	}

	// One reply token carries both the confirmation and the next picker.
	text := "任務 [" + task.Message + "] 的到期時間已設定為 " + timeutil.DisplayString(at) + "。\n接著可以選擇提前提醒的時間。"
	data := "taskId=" + url.QueryEscape(taskID) + "&field=notifyDate"
	h.replyDatetimePicker(e.ReplyToken, data, "設定提醒時間", text, timeutil.PickerSeed(at.UnixMilli()))
}

func (h *Handler) handleNotifyDatePostback(e webhook.PostbackEvent, taskID string, at time.Time) {
	task, err := h.service.SetNotifyDate(context.Background(), taskID, at)
	if err != nil {
		h.replyText(e.ReplyToken, rejectionText(err, "提醒"))
		return
	}
	h.replyText(e.ReplyToken, "任務 ["+task.Message+"] 的提醒時間已設定為 "+timeutil.DisplayString(at)+"。")
}

func rejectionText(err error, kind string) string {
	switch {
	case errors.Is(err, services.ErrPastDate):
		return kind + "時間不能是過去的時間，請重新選擇。"
	case errors.Is(err, services.ErrNotifyAfterExpire):
		return "提醒時間不能晚於到期時間，請重新選擇。"
	case errors.Is(err, database.ErrTaskNotFound):
		return "找不到該任務，它可能已被刪除。"
	default:
		log.Printf("Failed to set %s date: %v", kind, err)
		return "設定" + kind + "時間時發生錯誤，請稍後再試。"
	}
}

func (h *Handler) replyText(replyToken, text string) {
	_, err := h.bot.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		log.Printf("Failed to reply message: %v", err)
	}
}

func (h *Handler) replyDatetimePicker(replyToken, data, title, text, initial string) {
	picker := messaging_api.DatetimePickerAction{
		Label:   "選擇日期和時間",
		Data:    data,
		Mode:    messaging_api.DatetimePickerActionMODE_DATETIME,
		Initial: initial,
	}
	_, err := h.bot.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TemplateMessage{
				AltText: title,
				Template: messaging_api.ButtonsTemplate{
					Title:   title,
					Text:    text,
					Actions: []messaging_api.ActionInterface{picker},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Failed to reply datetime picker for %s: %v", data, err)
	}
}

// mentionsBot reports whether the bot itself is tagged in the message.
func mentionsBot(mention *webhook.Mention) bool {
	if mention == nil {
		return false
	}
	for _, m := range mention.Mentionees {
		if user, ok := m.(webhook.UserMentionee); ok && user.IsSelf {
			return true
		}
	}
	return false
}

// resolveSource returns the requesting user ID and the delivery target. In a
// group or room the notification goes back to the whole conversation.
func resolveSource(source webhook.SourceInterface) (sourceID, notifiedID string) {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId, s.UserId
	case webhook.GroupSource:
		return s.UserId, s.GroupId
	case webhook.RoomSource:
		return s.UserId, s.RoomId
	}
	return "", ""
}
