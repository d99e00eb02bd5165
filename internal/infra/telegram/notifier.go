package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Notifier renders user-facing notifications. Texts are HTML.
type Notifier struct {
	sender    Sender
	webAppURL string
}

func NewNotifier(sender Sender, webAppURL string) *Notifier {
	return &Notifier{
		sender:    sender,
		webAppURL: strings.TrimRight(strings.TrimSpace(webAppURL), "/"),
	}
}

func (n *Notifier) Liked(ctx context.Context, to int64) error {
	return n.send(ctx, Message{
		ChatID:  to,
		Text:    "<b>Кто-то поставил тебе лайк 💗</b>\nХочешь узнать кто?",
		Buttons: n.appButton("💌 Посмотреть", to, "matches"),
	})
}

func (n *Notifier) Superliked(ctx context.Context, to int64, from model.Profile) error {
	text := fmt.Sprintf("⭐ <b>%s</b> отправил(а) тебе суперлайк!", escape(orDefault(from.Name, "Кто-то")))
	return n.send(ctx, Message{
		ChatID:  to,
		Text:    text,
		Buttons: n.appButton("💗 Открыть анкету", to, "view-profile/"+fmt.Sprint(from.TelegramID)),
	})
}

// Matched tells `to` about a mutual like with `with`, attaching a direct chat link when possible.
func (n *Notifier) Matched(ctx context.Context, to int64, with model.Profile) error {
	var b strings.Builder
	b.WriteString("💕 <b>Взаимная симпатия!</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b>", escape(orDefault(with.Name, "Без имени")))
	if with.Age > 0 {
		fmt.Fprintf(&b, ", %d", with.Age)
	}
	if with.City != "" {
		fmt.Fprintf(&b, ", %s", escape(with.City))
	}
	b.WriteByte('\n')

	var buttons []Button
	if with.Username != "" {
		link := "https://t.me/" + with.Username
		fmt.Fprintf(&b, "👉 <a href='%s'>Написать %s</a>", link, escape(orDefault(with.Name, with.Username)))
		buttons = append(buttons, Button{Text: "💬 Написать", URL: link})
	}

	photo := ""
	if isTelegramFileID(with.Photo) {
		photo = with.Photo
	}
	return n.send(ctx, Message{
		ChatID:  to,
		Text:    b.String(),
		PhotoID: photo,
		Buttons: buttons,
	})
}

func (n *Notifier) PhotoLiked(ctx context.Context, owner int64, likerName string, index int) error {
	text := fmt.Sprintf("❤️ <b>%s</b> лайкнул(а) твоё фото №%d", escape(likerName), index+1)
	return n.send(ctx, Message{
		ChatID:  owner,
		Text:    text,
		Buttons: n.appButton("📸 Открыть", owner, "photo-likes"),
	})
}

func (n *Notifier) PhotoCommented(ctx context.Context, owner int64, authorName string, index int, comment string) error {
	text := fmt.Sprintf("💬 <b>%s</b> прокомментировал(а) твоё фото №%d:\n«%s»", escape(authorName), index+1, escape(comment))
	return n.send(ctx, Message{
		ChatID:  owner,
		Text:    text,
		Buttons: n.appButton("📸 Открыть", owner, "photo-likes"),
	})
}

func (n *Notifier) send(ctx context.Context, m Message) error {
	if n == nil || n.sender == nil {
		return ErrNotInitialized
	}
	return n.sender.Send(ctx, m)
}

func (n *Notifier) appButton(text string, userID int64, page string) []Button {
	if n == nil || n.webAppURL == "" {
		return nil
	}
	return []Button{{Text: text, URL: fmt.Sprintf("%s/users/%d/%s", n.webAppURL, userID, page)}}
}

// isTelegramFileID reports whether ref looks like a Bot API file id rather than a URL or storage key.
func isTelegramFileID(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") || strings.Contains(ref, ".") {
		return false
	}
	return len(ref) > 20
}

func IsFileID(ref string) bool {
	return isTelegramFileID(ref)
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
