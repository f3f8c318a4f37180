package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"perp_bot/internal/helper"
	"perp_bot/internal/modules/config"
	"perp_bot/internal/runner"
)

// MaxMessageRunes: лимит Telegram 4096, оставляем запас.
const MaxMessageRunes = 4095

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram: уведомления в один чат и команды /status, /position.
type Telegram struct {
	bot    sender
	api    *tgbot.BotAPI
	chatID int64
	board  *runner.StatusBoard
	log    *zap.Logger

	retries uint64
	timeout time.Duration // на всю доставку вместе с повторами
	backoff func() backoff.BackOff
}

func NewTelegram(cfg *config.Config, board *runner.StatusBoard, log *zap.Logger) (*Telegram, error) {
	// send_timeout делится между попытками: Send не принимает ctx
	attempts := time.Duration(max(cfg.Telegram.MaxRetries, 0) + 1)
	client := &http.Client{Timeout: cfg.Telegram.SendTimeout / attempts}
	b, err := tgbot.NewBotAPIWithClient(cfg.Telegram.Token, tgbot.APIEndpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	t := newTelegram(b, cfg.Telegram.ChatID, board, cfg.Telegram.MaxRetries, cfg.Telegram.SendTimeout, log)
	t.api = b
	return t, nil
}

func newTelegram(bot sender, chatID int64, board *runner.StatusBoard, retries int, timeout time.Duration, log *zap.Logger) *Telegram {
	if retries < 0 {
		retries = 0
	}
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		board:   board,
		log:     log.Named("telegram"),
		retries: uint64(retries),
		timeout: timeout,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(500*time.Millisecond),
				backoff.WithMaxInterval(5*time.Second),
			)
		},
	}
}

// Notify: best-effort. Длинный текст обрезается, сетевые ошибки повторяются,
// 4xx от Telegram (кроме 429) не повторяются. Вся доставка укладывается в send_timeout.
func (t *Telegram) Notify(ctx context.Context, text string) bool {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	msg := tgbot.NewMessage(t.chatID, helper.Truncate(text, MaxMessageRunes))
	bo := backoff.WithContext(backoff.WithMaxRetries(t.backoff(), t.retries), ctx)

	err := backoff.Retry(func() error {
		err := t.send(ctx, msg)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var apiErr *tgbot.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
	if err != nil {
		t.log.Warn("send failed", zap.Error(err))
		return false
	}
	return true
}

// send не ждёт зависший запрос дольше ctx. Сам запрос добьёт таймаут http-клиента.
func (t *Telegram) send(ctx context.Context, msg tgbot.Chattable) error {
	res := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		res <- err
	}()
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "telegram send")
	}
}

// Start слушает команды. Сообщения из чужих чатов игнорируются.
func (t *Telegram) Start(ctx context.Context) {
	if t.api == nil {
		return
	}
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
	t.log.Info("telegram commands listening", zap.Int64("chat_id", t.chatID))
}

func (t *Telegram) Stop() {
	if t.api != nil {
		t.api.StopReceivingUpdates()
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	m := update.Message
	if m == nil || !m.IsCommand() || m.Chat == nil || m.Chat.ID != t.chatID {
		return
	}
	reply := t.reply(m.Command())
	if reply == "" {
		return
	}
	t.Notify(ctx, reply)
}

func (t *Telegram) reply(command string) string {
	s := t.board.Load()
	switch strings.ToLower(command) {
	case "status":
		return s.Text()
	case "position":
		if s.UpdatedAt.IsZero() {
			return s.Text()
		}
		return s.PositionText()
	case "start", "help":
		return "/status: состояние бота\n/position: текущая позиция"
	}
	return ""
}
