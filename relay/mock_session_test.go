package relay

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// FOR TESTING
type MockDiscordSession struct {
	channelEmbeds map[string][]*discordgo.MessageEmbed
	fail          bool
}

func newMockSession() *MockDiscordSession {
	return &MockDiscordSession{
		channelEmbeds: make(map[string][]*discordgo.MessageEmbed),
	}
}

func (m *MockDiscordSession) ChannelMessageSendEmbed(
	channelID string, embed *discordgo.MessageEmbed,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	if m.fail {
		return nil, errors.New("HTTP 500 Internal Server Error")
	}
	m.channelEmbeds[channelID] = append(m.channelEmbeds[channelID], embed)
	return &discordgo.Message{ChannelID: channelID, Embeds: []*discordgo.MessageEmbed{embed}}, nil
}
