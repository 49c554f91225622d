package relay

import "github.com/bwmarrin/discordgo"

// discordgo.Session interface wrapping for testing
// implements the methods the relay uses
type DiscordSession interface {
	// see discordgo.Session.ChannelMessageSendEmbed
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// NewDiscordSession only talks to the REST API, so the gateway connection is
// never opened.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	return discordgo.New("Bot " + token)
}
