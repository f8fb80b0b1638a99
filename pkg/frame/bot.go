package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v3"

	"epaperdash/pkg/settings"
)

// Bot is an optional Telegram control surface mirroring the HTTP operations.
func NewBot(token string, ctrl *Controller, loop *Loop) (*Bot, error) {
	pref := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{b: b, ctrl: ctrl, loop: loop}, nil
}

type Bot struct {
	b    *tele.Bot
	ctrl *Controller
	loop *Loop
}

func (b *Bot) handleAuto() {
	b.b.Handle("/pause", func(context tele.Context) error {
		b.loop.Stop()
		return context.Reply("OK")
	})

	b.b.Handle("/resume", func(context tele.Context) error {
		b.loop.Start()
		return context.Reply("OK")
	})

	b.b.Handle("/refresh", func(context tele.Context) error {
		if err := b.ctrl.Refresh(); err != nil {
			return context.Reply(fmt.Sprintf("refresh failed: %s", err))
		}
		return context.Reply("OK")
	})
}

func (b *Bot) handleConfig() {
	b.b.Handle("/rotate", func(context tele.Context) error {
		deg, err := strconv.Atoi(context.Message().Payload)
		if err != nil {
			return context.Reply("usage: /rotate <degrees>")
		}

		rot, err := b.ctrl.Rotate(deg)
		if err != nil {
			return context.Reply(fmt.Sprintf("rotate failed: %s", err))
		}
		return context.Reply(fmt.Sprintf("rotation is now %d", rot))
	})

	b.b.Handle("/mode", func(context tele.Context) error {
		in := context.Message().Payload
		if in == "" {
			return context.Reply(b.ctrl.Settings().Mode)
		}
		return b.apply(context, settings.Patch{Mode: &in})
	})

	b.b.Handle("/city", func(context tele.Context) error {
		in := context.Message().Payload
		if in == "" {
			return context.Reply(b.ctrl.Settings().City)
		}
		return b.apply(context, settings.Patch{City: &in})
	})

	b.b.Handle("/interval", func(context tele.Context) error {
		in := context.Message().Payload
		if in == "" {
			return context.Reply(strconv.Itoa(b.ctrl.Settings().Interval))
		}

		sec, err := strconv.Atoi(in)
		if err != nil {
			return context.Reply("usage: /interval <seconds>")
		}
		return b.apply(context, settings.Patch{Interval: &sec})
	})

	b.b.Handle("/status", func(context tele.Context) error {
		s := b.ctrl.Settings()
		lines := []string{
			fmt.Sprintf("mode: %s", s.Mode),
			fmt.Sprintf("city: %s", s.City),
			fmt.Sprintf("rotation: %d", s.Rotation),
			fmt.Sprintf("interval: %ds", s.Interval),
			fmt.Sprintf("auto: %s", lo.Ternary(b.loop.Running(), "running", "stopped")),
		}
		if bs, err := b.ctrl.Preview(); err == nil {
			lines = append(lines, fmt.Sprintf("preview: %s", bytesize.New(float64(len(bs)))))
		}
		return context.Reply(strings.Join(lines, "\n"))
	})
}

func (b *Bot) apply(context tele.Context, p settings.Patch) error {
	if _, err := b.ctrl.ApplySettings(p); err != nil {
		return context.Reply(fmt.Sprintf("change failed: %s", err))
	}
	return context.Reply("OK")
}

func (b *Bot) Start() {
	b.handleAuto()
	b.handleConfig()
	go b.b.Start()
}

func (b *Bot) Stop() {
	b.b.Stop()
}
