package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shaxten/nhl-app/events"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, embed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func TestSettlementNotifier_PostsSummary(t *testing.T) {
	sender := new(mockSender)
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.MatchedBy(func(embed *discordgo.MessageEmbed) bool {
		return embed.Color == colorSuccess && len(embed.Fields) == 3 && embed.Fields[2].Value == "260 Millcoins"
	})).Return(&discordgo.Message{}, nil).Once()

	notifier := NewSettlementNotifier(sender, "chan-1")
	notifier.Handle(context.Background(), events.SettlementCompletedEvent{Settled: 1, PaidOut: 260})

	sender.AssertExpectations(t)
}

func TestSettlementNotifier_SkipsIdlePasses(t *testing.T) {
	sender := new(mockSender)
	notifier := NewSettlementNotifier(sender, "chan-1")

	notifier.Handle(context.Background(), events.SettlementCompletedEvent{Deferred: 4})
	notifier.Handle(context.Background(), events.WagerSettledEvent{})

	sender.AssertNotCalled(t, "ChannelMessageSendEmbed", mock.Anything, mock.Anything)
}

func TestSettlementNotifier_SendErrorIsLogged(t *testing.T) {
	sender := new(mockSender)
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).Return(nil, errors.New("missing access")).Once()

	notifier := NewSettlementNotifier(sender, "chan-1")
	assert.NotPanics(t, func() {
		notifier.Handle(context.Background(), events.SettlementCompletedEvent{Failures: 1})
	})
	sender.AssertExpectations(t)
}

func TestSettlementNotifier_AttachReceivesBusEvents(t *testing.T) {
	sender := new(mockSender)
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).Return(&discordgo.Message{}, nil).Once()

	bus := events.NewBus()
	NewSettlementNotifier(sender, "chan-1").Attach(bus)
	bus.Emit(context.Background(), events.SettlementCompletedEvent{Refunded: 2})
	bus.Wait()

	sender.AssertExpectations(t)
}

func TestBuildSettlementEmbed(t *testing.T) {
	at := time.Date(2025, 1, 15, 6, 0, 0, 0, time.UTC)
	embed := BuildSettlementEmbed(events.SettlementCompletedEvent{
		Settled: 3, Refunded: 1, Deferred: 2, Conflicts: 1, Failures: 1, PaidOut: 500, DurationMs: 42,
	}, at)

	assert.Equal(t, colorDanger, embed.Color)
	require.Len(t, embed.Fields, 5)
	assert.Equal(t, "2", embed.Fields[3].Value)
	assert.Equal(t, "1 already processed, 1 failed", embed.Fields[4].Value)
	assert.Equal(t, "Pass took 42 ms", embed.Footer.Text)
	assert.Equal(t, "2025-01-15T06:00:00Z", embed.Timestamp)
}
