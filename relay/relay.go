package relay

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"assistantwire/assistants"
	"assistantwire/stream"
)

const (
	COLOR_SUCCESS = 0x2ecc71
	COLOR_WARNING = 0xf1c40f
	COLOR_FAILURE = 0xe74c3c
	// discord rejects embed field values over 1024 characters
	MAX_FIELD_LENGTH = 1024
)

// Relay posts run outcomes from a stream to a discord channel.
type Relay struct {
	session   DiscordSession
	channelID string
}

func New(session DiscordSession, channelID string) *Relay {
	return &Relay{session: session, channelID: channelID}
}

// Send posts an embed for ev if it is one the relay reports on. sent is false
// for events that are skipped.
func (r *Relay) Send(ev stream.Event) (sent bool, err error) {
	embed, ok := Embed(ev)
	if !ok {
		return false, nil
	}
	_, err = r.session.ChannelMessageSendEmbed(r.channelID, embed)
	if err != nil {
		return false, fmt.Errorf("unable to send %s embed: %w", ev.Type(), err)
	}
	return true, nil
}

// Embed renders the run outcome events and stream errors. Everything else is
// skipped.
func Embed(ev stream.Event) (*discordgo.MessageEmbed, bool) {
	if apiErr, ok := ev.Err(); ok {
		return &discordgo.MessageEmbed{
			Title:       "Stream error",
			Description: truncate(apiErr.Error()),
			Color:       COLOR_FAILURE,
		}, true
	}

	run, ok := ev.Run()
	if !ok {
		return nil, false
	}

	embed := &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Run", Value: run.ID, Inline: true},
			{Name: "Thread", Value: run.ThreadID, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: run.AssistantID},
	}
	if run.Model != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Model", Value: run.Model, Inline: true,
		})
	}
	if run.CompletedAt != nil {
		embed.Timestamp = time.Unix(*run.CompletedAt, 0).UTC().Format(time.RFC3339)
	}

	switch ev.Type() {
	case stream.RunCompleted:
		embed.Title = "Run completed"
		embed.Color = COLOR_SUCCESS
		if run.Usage != nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Tokens",
				Value: fmt.Sprintf("%d (%d prompt, %d completion)", run.Usage.TotalTokens, run.Usage.PromptTokens, run.Usage.CompletionTokens),
			})
		}
	case stream.RunRequiresAction:
		embed.Title = "Run requires action"
		embed.Color = COLOR_WARNING
		embed.Fields = append(embed.Fields, toolCallFields(run)...)
	case stream.RunIncomplete, stream.RunCancelled, stream.RunExpired:
		embed.Title = "Run " + runState(ev.Type())
		embed.Color = COLOR_WARNING
	case stream.RunFailed:
		embed.Title = "Run failed"
		embed.Color = COLOR_FAILURE
		if run.LastError != nil {
			embed.Description = truncate(fmt.Sprintf(
				"%s: %s",
				run.LastError.Code,
				run.LastError.Message,
			))
		}
	default:
		return nil, false
	}
	return embed, true
}

func toolCallFields(run assistants.Run) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, call := range run.PendingToolCalls() {
		name := call.Function.Name
		if name == "" {
			name = call.ID
		}
		if name == "" {
			name = "tool call"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: truncate("`" + call.Function.Arguments + "`"),
		})
	}
	return fields
}

func runState(t stream.EventType) string {
	return strings.TrimPrefix(string(t), "thread.run.")
}

// truncate counts runes, so multibyte text is never split.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MAX_FIELD_LENGTH {
		return s
	}
	return string([]rune(s)[:MAX_FIELD_LENGTH-3]) + "..."
}
