package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return nil
}

func TestMatchedIncludesChatLinkAndPhoto(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "https://app.local/")

	err := n.Matched(context.Background(), 10, model.Profile{
		TelegramID: 20,
		Name:       "Маша <3",
		Username:   "masha",
		Age:        25,
		City:       "Москва",
		Photo:      "AgACAgIAAxkBAAIBZ2Vabcdefghijkl",
	})
	if err != nil {
		t.Fatalf("send match: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("unexpected sent count: got %d want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.ChatID != 10 {
		t.Fatalf("unexpected chat id: %d", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "Маша &lt;3") || !strings.Contains(msg.Text, "25, Москва") {
		t.Fatalf("unexpected text: %s", msg.Text)
	}
	if msg.PhotoID == "" {
		t.Fatalf("expected photo attachment")
	}
	if len(msg.Buttons) != 1 || msg.Buttons[0].URL != "https://t.me/masha" {
		t.Fatalf("unexpected buttons: %+v", msg.Buttons)
	}
}

func TestMatchedSkipsStorageKeyPhoto(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "")

	if err := n.Matched(context.Background(), 1, model.Profile{Name: "Оля", Photo: "2_0.png"}); err != nil {
		t.Fatalf("send match: %v", err)
	}
	if sender.sent[0].PhotoID != "" {
		t.Fatalf("storage key must not be sent as telegram photo")
	}
	if len(sender.sent[0].Buttons) != 0 {
		t.Fatalf("no username means no chat button")
	}
}

func TestLikedUsesWebAppLink(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "https://app.local")

	if err := n.Liked(context.Background(), 5); err != nil {
		t.Fatalf("send liked: %v", err)
	}
	if got := sender.sent[0].Buttons[0].URL; got != "https://app.local/users/5/matches" {
		t.Fatalf("unexpected button url: %s", got)
	}
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	if err := n.Liked(context.Background(), 1); err == nil {
		t.Fatalf("expected error for nil notifier")
	}
}
