// Package bot is the Telegram transport: it maps chat commands onto the
// query and subscription layers and renders their results as replies.
//
// Commands (mirroring the original IPEA bot):
//
//	/start        → subscribe / reactivate alerts
//	/stop         → deactivate alerts
//	/ajuda        → command list
//	/mais_recente → most recent call number
//	/link <n>     → link for call number n
//	/abertos      → open notices, soonest-closing first
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/query"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/subscription"
)

const helpText = `Comandos disponíveis:
/start - Ativa/Reativa o recebimento de alertas.
/stop - Desativa o recebimento de alertas.
/ajuda - Mostra esta mensagem.
/mais_recente - Mostra o número do edital mais recente.
/link <numero> - Obtém o link do edital (ex: /link 33).
/abertos - Lista os editais com inscrições abertas.`

const unavailableText = "Desculpe, não consegui carregar os dados dos editais agora."

// Bot runs the long-polling update loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	queries *query.Service
	subs    *subscription.Service
}

// New authenticates against the Telegram API.
func New(token string, queries *query.Service, subs *subscription.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Printf("[bot] authorized as @%s", api.Self.UserName)
	return &Bot{api: api, queries: queries, subs: subs}, nil
}

// Run polls for updates until ctx is cancelled. Each command is handled in
// its own goroutine so a slow reply never blocks unrelated commands.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			go b.handle(update.Message)
		}
	}
}

// Send delivers one alert message; this makes the bot the query layer's
// broadcast Sender.
func (b *Bot) Send(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q: %w", userID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", userID, err)
	}
	return nil
}

func (b *Bot) handle(m *tgbotapi.Message) {
	if m.From == nil {
		return
	}

	var reply string
	markdown := false

	switch m.Command() {
	case "start":
		reply = b.start(m)
	case "stop":
		reply = b.stop(m)
	case "ajuda", "help":
		reply = helpText
	case "mais_recente":
		reply = b.mostRecent()
	case "link":
		reply = b.link(m.CommandArguments())
	case "abertos":
		reply = b.openList()
		markdown = true
	default:
		reply = "Comando desconhecido. Use /ajuda para ver os comandos."
	}

	msg := tgbotapi.NewMessage(m.Chat.ID, reply)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[bot] reply to %d failed: %v", m.Chat.ID, err)
	}
}

func (b *Bot) start(m *tgbotapi.Message) string {
	userID := strconv.FormatInt(m.From.ID, 10)
	status, err := b.subs.AddOrActivate(userID)
	if err != nil {
		log.Printf("[bot] /start for %s failed: %v", userID, err)
		return "Desculpe, não consegui atualizar sua inscrição agora."
	}

	name := m.From.FirstName
	switch status {
	case subscription.StatusAdded:
		return fmt.Sprintf("Olá %s! ✅ Você foi adicionado e receberá alertas de novos editais.\nUse /stop para parar ou /ajuda para ver comandos.", name)
	case subscription.StatusReactivated:
		return fmt.Sprintf("Olá %s! Você já está na lista. Use /ajuda para comandos.\nSeus alertas foram reativados!", name)
	default:
		return fmt.Sprintf("Olá %s! Você já está na lista. Use /ajuda para comandos.", name)
	}
}

func (b *Bot) stop(m *tgbotapi.Message) string {
	userID := strconv.FormatInt(m.From.ID, 10)
	status, err := b.subs.Deactivate(userID)
	if err != nil {
		log.Printf("[bot] /stop for %s failed: %v", userID, err)
		return "Desculpe, não consegui atualizar sua inscrição agora."
	}

	if status == subscription.StatusDeactivated {
		return "❌ Alertas desativados. Você não receberá mais notificações."
	}
	return "ℹ️ Você já não estava recebendo alertas."
}

func (b *Bot) mostRecent() string {
	n, err := b.queries.MostRecent()
	if err != nil {
		if !errors.Is(err, query.ErrNoData) {
			log.Printf("[bot] /mais_recente failed: %v", err)
		}
		return unavailableText
	}
	return fmt.Sprintf("📌 Edital mais recente: %s/%s", n.CallNumberString(), *n.Year)
}

func (b *Bot) link(args string) string {
	num := strings.TrimSpace(args)
	if num == "" {
		return "❗ Uso: /link <numero_do_edital>"
	}

	n, err := b.queries.Lookup(num)
	if err != nil {
		if !errors.Is(err, query.ErrNoData) {
			log.Printf("[bot] /link %s failed: %v", num, err)
		}
		return unavailableText
	}
	if n == nil {
		return fmt.Sprintf("🚫 Edital nº %s não encontrado.", num)
	}

	link := "N/A"
	if n.Link != nil {
		link = *n.Link
	}
	return fmt.Sprintf("🔗 Link do edital %s: %s", num, link)
}

func (b *Bot) openList() string {
	open, err := b.queries.ListOpen()
	if err != nil {
		if !errors.Is(err, query.ErrNoData) {
			log.Printf("[bot] /abertos failed: %v", err)
		}
		return unavailableText
	}
	return b.queries.FormatOpenList(open)
}
