package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNotInitialized = errors.New("telegram bot is not initialized")

type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

type User struct {
	ID        int64
	Username  string
	FirstName string
}

type CommandUpdate struct {
	ChatID  int64
	From    User
	Command string
	Args    string
}

type TextUpdate struct {
	ChatID int64
	From   User
	Text   string
}

type PhotoUpdate struct {
	ChatID int64
	From   User
	FileID string
}

type Handlers struct {
	OnCommand func(context.Context, CommandUpdate) error
	OnText    func(context.Context, TextUpdate) error
	OnPhoto   func(context.Context, PhotoUpdate) error
}

type Button struct {
	Text string
	URL  string
}

type Message struct {
	ChatID  int64
	Text    string
	PhotoID string
	Buttons []Button
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Listen dispatches updates until ctx is done. A handler error stops listening.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return ErrNotInitialized
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := dispatch(ctx, update, handlers); err != nil {
				return err
			}
		}
	}
}

func dispatch(ctx context.Context, update tgbotapi.Update, handlers Handlers) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	from := User{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}

	switch {
	case msg.IsCommand():
		if handlers.OnCommand == nil {
			return nil
		}
		return handlers.OnCommand(ctx, CommandUpdate{
			ChatID:  msg.Chat.ID,
			From:    from,
			Command: msg.Command(),
			Args:    strings.TrimSpace(msg.CommandArguments()),
		})
	case len(msg.Photo) > 0:
		if handlers.OnPhoto == nil {
			return nil
		}
		// The last size is the largest one.
		return handlers.OnPhoto(ctx, PhotoUpdate{
			ChatID: msg.Chat.ID,
			From:   from,
			FileID: msg.Photo[len(msg.Photo)-1].FileID,
		})
	default:
		text := strings.TrimSpace(msg.Text)
		if text == "" || handlers.OnText == nil {
			return nil
		}
		return handlers.OnText(ctx, TextUpdate{
			ChatID: msg.Chat.ID,
			From:   from,
			Text:   text,
		})
	}
}

// Send delivers an HTML message, as a photo with caption when PhotoID is set.
func (b *Bot) Send(ctx context.Context, m Message) error {
	if b == nil || b.api == nil {
		return ErrNotInitialized
	}
	if m.ChatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	markup := inlineKeyboard(m.Buttons)

	var chattable tgbotapi.Chattable
	if m.PhotoID != "" {
		photo := tgbotapi.NewPhoto(m.ChatID, tgbotapi.FileID(m.PhotoID))
		photo.Caption = m.Text
		photo.ParseMode = tgbotapi.ModeHTML
		if markup != nil {
			photo.ReplyMarkup = *markup
		}
		chattable = photo
	} else {
		msg := tgbotapi.NewMessage(m.ChatID, m.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		chattable = msg
	}

	if _, err := b.api.Send(chattable); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func inlineKeyboard(buttons []Button) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		if btn.URL == "" {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL)))
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// FileURL resolves a Telegram file id to a Bot API download URL. The URL embeds the bot token
// and must only be handed to the user's own client.
func (b *Bot) FileURL(ctx context.Context, fileID string) (string, error) {
	if b == nil || b.api == nil {
		return "", ErrNotInitialized
	}
	if strings.TrimSpace(fileID) == "" {
		return "", fmt.Errorf("file id is required")
	}

	url, err := b.api.GetFileDirectURL(strings.TrimSpace(fileID))
	if err != nil {
		return "", fmt.Errorf("get telegram file url: %w", err)
	}

	_ = ctx
	return url, nil
}

// DownloadFile streams a Telegram file. The caller closes the body.
func (b *Bot) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, int64, string, string, error) {
	fileURL, err := b.FileURL(ctx, fileID)
	if err != nil {
		return nil, 0, "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("download telegram file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, "", "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	name := path.Base(strings.TrimSpace(req.URL.Path))
	if name == "." || name == "/" || name == "" {
		name = "photo.jpg"
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" || contentType == "application/octet-stream" {
		contentType = "image/jpeg"
	}

	return resp.Body, resp.ContentLength, name, contentType, nil
}
