// Package bot binds the dialog engine to the Telegram long-poll API. The
// engine never sees transport types; this package renders Reply values into
// messages, in-place edits and keyboards, and enforces the allow-list.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/mexan-workshop/mexanbot/internal/config"
	"github.com/mexan-workshop/mexanbot/internal/dialog"
)

// Telegram caps messages at 4096 chars; chunk below that to leave headroom
// for HTML entities.
const maxMessageLen = 4000

// TelegramBot is the slice of tgbotapi.BotAPI the service needs, extracted
// for mocking.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
}

type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.bot.Request(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking)
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type Service struct {
	token      string
	proxy      string
	allowFrom  map[int64]bool
	engine     *dialog.Engine
	bot        TelegramBot
	botFactory BotFactory
	cancel     context.CancelFunc
	log        zerolog.Logger
}

func NewService(cfg config.TelegramConfig, engine *dialog.Engine, log zerolog.Logger) (*Service, error) {
	return NewServiceWithFactory(cfg, engine, log, defaultBotFactory)
}

// NewServiceWithFactory creates a Service with a custom bot factory (for testing)
func NewServiceWithFactory(cfg config.TelegramConfig, engine *dialog.Engine, log zerolog.Logger, factory BotFactory) (*Service, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	allow := make(map[int64]bool, len(cfg.AllowFrom))
	for _, id := range cfg.AllowFrom {
		allow[id] = true
	}
	return &Service{
		token:      cfg.Token,
		proxy:      cfg.Proxy,
		allowFrom:  allow,
		engine:     engine,
		botFactory: factory,
		log:        log.With().Str("component", "telegram").Logger(),
	}, nil
}

func (s *Service) initBot() error {
	client := http.DefaultClient
	if s.proxy != "" {
		proxyURL, err := url.Parse(s.proxy)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	bot, err := s.botFactory(s.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	s.bot = bot
	s.log.Info().Str("username", bot.GetSelf().UserName).Msg("authorized")
	return nil
}

// Start begins long polling in a background goroutine. A panic while
// handling one update is logged and the loop continues with the next.
func (s *Service) Start(ctx context.Context) error {
	if err := s.initBot(); err != nil {
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update := <-updates:
				s.handleUpdate(update)
			case <-ctx.Done():
				return
			}
		}
	}()

	s.log.Info().Msg("polling started")
	return nil
}

func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.bot != nil {
		s.bot.StopReceivingUpdates()
	}
	s.log.Info().Msg("stopped")
	return nil
}

// SetBot sets the bot (for testing)
func (s *Service) SetBot(bot TelegramBot) {
	s.bot = bot
}

func (s *Service) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("update handler panicked")
		}
	}()

	switch {
	case update.Message != nil:
		s.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		s.handleCallback(update.CallbackQuery)
	}
}

func (s *Service) isAllowed(userID int64) bool {
	if len(s.allowFrom) == 0 {
		return true
	}
	return s.allowFrom[userID]
}

func (s *Service) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	if !s.isAllowed(msg.From.ID) {
		s.log.Warn().Int64("user", msg.From.ID).Str("username", msg.From.UserName).Msg("rejected message")
		return
	}
	replies := s.engine.HandleText(msg.From.ID, msg.Text)
	s.deliver(msg.Chat.ID, 0, replies)
}

func (s *Service) handleCallback(cb *tgbotapi.CallbackQuery) {
	// Answer first so the client stops its spinner even if rendering fails.
	if _, err := s.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		s.log.Warn().Err(err).Msg("answer callback failed")
	}

	if cb.From == nil || cb.Message == nil {
		return
	}
	if !s.isAllowed(cb.From.ID) {
		s.log.Warn().Int64("user", cb.From.ID).Msg("rejected callback")
		return
	}
	replies := s.engine.HandleCallback(cb.From.ID, cb.Data)
	s.deliver(cb.Message.Chat.ID, cb.Message.MessageID, replies)
}

// deliver renders engine replies. messageID is the triggering message for
// in-place edits, zero when the update was a plain message.
func (s *Service) deliver(chatID int64, messageID int, replies []dialog.Reply) {
	for _, reply := range replies {
		if reply.Edit && messageID != 0 {
			s.editMessage(chatID, messageID, reply)
			continue
		}
		s.sendMessage(chatID, reply)
	}
}

func (s *Service) editMessage(chatID int64, messageID int, reply dialog.Reply) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	if reply.Keyboard != nil {
		markup := inlineMarkup(reply.Keyboard)
		edit.ReplyMarkup = &markup
	}
	if _, err := s.bot.Send(edit); err != nil {
		// Falls back to a fresh message; edits fail on old messages.
		s.log.Debug().Err(err).Msg("edit failed, sending instead")
		s.sendMessage(chatID, reply)
	}
}

func (s *Service) sendMessage(chatID int64, reply dialog.Reply) {
	chunks := splitMessage(reply.Text)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		// Keyboards go on the last chunk only.
		if i == len(chunks)-1 {
			switch {
			case reply.Keyboard != nil:
				msg.ReplyMarkup = inlineMarkup(reply.Keyboard)
			case reply.MainMenu:
				msg.ReplyMarkup = mainMenuMarkup()
			}
		}
		if _, err := s.bot.Send(msg); err != nil {
			// Retry without HTML parse mode
			msg.ParseMode = ""
			if _, err2 := s.bot.Send(msg); err2 != nil {
				s.log.Error().Err(err2).Int64("chat", chatID).Msg("send failed")
				return
			}
		}
	}
}

// splitMessage chunks text below the Telegram limit, preferring newline
// boundaries.
func splitMessage(text string) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxMessageLen {
			idx := strings.LastIndex(chunk[:maxMessageLen], "\n")
			if idx > 0 {
				chunk = chunk[:idx]
			} else {
				chunk = chunk[:maxMessageLen]
			}
		}
		text = text[len(chunk):]
		chunks = append(chunks, strings.TrimPrefix(chunk, "\n"))
	}
	return chunks
}

func inlineMarkup(kb *dialog.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mainMenuMarkup() tgbotapi.ReplyKeyboardMarkup {
	labelRows := dialog.MainMenuLabels()
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labelRows))
	for _, labels := range labelRows {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
