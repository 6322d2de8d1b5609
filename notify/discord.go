// Package notify announces settlement outcomes on Discord
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaxten/nhl-app/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorSuccess = 0x2ECC71
	colorDanger  = 0xE74C3C
)

// MessageSender is the part of a discordgo session used to post embeds
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// NewSession creates a REST-only bot session. No gateway connection is opened.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return session, nil
}

// SettlementNotifier posts a summary of every settlement pass that touched a wager
type SettlementNotifier struct {
	sender    MessageSender
	channelID string
	now       func() time.Time
}

// NewSettlementNotifier creates a notifier that posts to channelID
func NewSettlementNotifier(sender MessageSender, channelID string) *SettlementNotifier {
	return &SettlementNotifier{
		sender:    sender,
		channelID: channelID,
		now:       time.Now,
	}
}

// Attach subscribes the notifier to settlement events on bus
func (n *SettlementNotifier) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeSettlementCompleted, n.Handle)
}

// Handle posts the summary. Passes that changed nothing are not announced.
func (n *SettlementNotifier) Handle(_ context.Context, event events.Event) {
	completed, ok := event.(events.SettlementCompletedEvent)
	if !ok {
		return
	}
	if completed.Settled+completed.Refunded+completed.Conflicts+completed.Failures == 0 {
		return
	}

	if _, err := n.sender.ChannelMessageSendEmbed(n.channelID, BuildSettlementEmbed(completed, n.now())); err != nil {
		log.WithFields(log.Fields{
			"channelID": n.channelID,
			"error":     err,
		}).Error("Failed to post settlement summary")
	}
}

// BuildSettlementEmbed renders one pass
func BuildSettlementEmbed(e events.SettlementCompletedEvent, at time.Time) *discordgo.MessageEmbed {
	color := colorSuccess
	if e.Failures > 0 {
		color = colorDanger
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "✅ Settled", Value: fmt.Sprintf("%d", e.Settled), Inline: true},
		{Name: "↩️ Refunded", Value: fmt.Sprintf("%d", e.Refunded), Inline: true},
		{Name: "💰 Paid out", Value: fmt.Sprintf("%d Millcoins", e.PaidOut), Inline: true},
	}
	if e.Deferred > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "⏳ Waiting", Value: fmt.Sprintf("%d", e.Deferred), Inline: true})
	}
	if e.Conflicts+e.Failures > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "⚠️ Problems",
			Value:  fmt.Sprintf("%d already processed, %d failed", e.Conflicts, e.Failures),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:     "🏒 Bets resolved",
		Color:     color,
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Pass took %.0f ms", e.DurationMs)},
		Timestamp: at.Format(time.RFC3339),
	}
}
