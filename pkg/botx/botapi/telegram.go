// Package botapi contains implementations of bot API interfaces.
package botapi

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Semior001/feedcache/pkg/botx"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/exp/slog"
)

// MaxMessageLength is the limit of a single telegram message, in characters.
const MaxMessageLength = 4096

// Telegram is a controller that handles requests from telegram.
type Telegram struct {
	log     *slog.Logger
	api     *tgbotapi.BotAPI
	updates chan botx.Request
}

// NewTelegram returns a new telegram bot controller.
func NewTelegram(lg *slog.Logger, token string, bufferSize int) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("make new api: %w", err)
	}

	stdlibLogger := slog.NewLogLogger(lg.Handler(), slog.LevelWarn)
	stdlibLogger.SetPrefix("telegram-bot-api: ")

	if err = tgbotapi.SetLogger(stdlibLogger); err != nil {
		return nil, fmt.Errorf("set logger: %w", err)
	}

	return &Telegram{
		log:     lg,
		api:     api,
		updates: make(chan botx.Request, bufferSize),
	}, nil
}

// SetCommands publishes the commands menu of the bot.
func (b *Telegram) SetCommands(commands map[string]string) error {
	cmds := make([]tgbotapi.BotCommand, 0, len(commands))
	for cmd, descr := range commands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: strings.TrimPrefix(cmd, "/"), Description: descr})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Command < cmds[j].Command })

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Run listens for updates until Stop is called.
func (b *Telegram) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || msg.Text == "" {
			continue
		}

		b.updates <- botx.Request{
			MessageID: strconv.Itoa(msg.MessageID),
			Chat: botx.Chat{
				ID:       strconv.FormatInt(msg.Chat.ID, 10),
				Username: msg.Chat.UserName,
			},
			Text: msg.Text,
		}
	}
}

// Stop stops telegram bot listener.
func (b *Telegram) Stop() {
	b.api.StopReceivingUpdates()
	close(b.updates)
}

// Updates returns updates channel.
func (b *Telegram) Updates() <-chan botx.Request {
	return b.updates
}

// SendMessage sends message to telegram user. Texts longer than the
// telegram limit are sent in several messages, the first one replies
// to the request.
func (b *Telegram) SendMessage(ctx context.Context, resp botx.Response) error {
	chatID, err := strconv.ParseInt(resp.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id: %w", err)
	}

	replyTo := 0
	if resp.ReplyToMessageID != "" {
		if replyTo, err = strconv.Atoi(resp.ReplyToMessageID); err != nil {
			return fmt.Errorf("parse reply to message id: %w", err)
		}
	}

	parts := SplitText(resp.Text, MaxMessageLength)
	if len(parts) > 1 {
		b.log.DebugCtx(ctx, "message is split", slog.String("chat_id", resp.ChatID), slog.Int("parts", len(parts)))
	}

	for i, part := range parts {
		if err = ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}

		if _, err = b.api.Send(msg); err != nil {
			return fmt.Errorf("send message part %d: %w", i+1, err)
		}
	}

	return nil
}

// SplitText splits the text into parts of at most limit characters,
// cutting by lines whenever possible.
func SplitText(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var res []string
	sb := &strings.Builder{}
	size := 0

	flush := func() {
		if sb.Len() > 0 {
			res = append(res, sb.String())
			sb.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}

		// a single line longer than the limit is cut by characters
		for n > limit {
			runes := []rune(line)
			res = append(res, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}

		_, _ = sb.WriteString(line)
		size += n
	}
	flush()

	return res
}
