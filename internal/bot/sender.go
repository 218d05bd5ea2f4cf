package bot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/b10t/fish-shop/core/telegram/keyboard"
	"github.com/b10t/fish-shop/internal/shop"
)

// Sender delivers router replies through a Telebot instance. The bot is
// bound after construction because Telebot is only created inside the run
// loop, while the router needs its sender up front.
type Sender struct {
	bot atomic.Pointer[tele.Bot]
}

// NewSender returns an unbound sender.
func NewSender() *Sender {
	return &Sender{}
}

// Bind attaches the live bot. Called from the run loop's OnStart hook.
func (s *Sender) Bind(b *tele.Bot) {
	s.bot.Store(b)
}

// Send renders a reply as text or photo with an inline keyboard.
func (s *Sender) Send(_ context.Context, chatID int64, reply shop.Reply) error {
	b := s.bot.Load()
	if b == nil {
		return fmt.Errorf("bot: sender not bound")
	}

	markup := buildMarkup(reply.Buttons)
	recipient := tele.ChatID(chatID)

	if reply.Photo != "" {
		photo := &tele.Photo{File: photoFile(reply.Photo), Caption: reply.Text}
		_, err := b.Send(recipient, photo, markup)
		return err
	}
	_, err := b.Send(recipient, reply.Text, markup)
	return err
}

func buildMarkup(rows [][]shop.Button) *tele.ReplyMarkup {
	out := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Data: b.Data})
		}
		out = append(out, btns)
	}
	return keyboard.InlineButtonsRows(out...)
}

// photoFile treats http(s) references as remote URLs and anything else as
// a bundled local image, which is how the fallback resource ships.
func photoFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.FromDisk(ref)
}
