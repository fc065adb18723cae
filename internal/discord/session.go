package discord

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"botdeck/internal/gateway"
	"botdeck/internal/models"

	"github.com/bwmarrin/discordgo"
)

// Session adapts a live discordgo connection to the gateway's
// RemoteSession interface. Guild and channel lookups are served from
// discordgo's state cache, never from REST calls.
type Session struct {
	dg    *discordgo.Session
	ready atomic.Bool
}

// Connect opens a bot session with the given token and blocks until the
// websocket handshake completes. Readiness afterwards tracks the
// gateway's Ready/Disconnect events.
func Connect(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	s := &Session{dg: dg}
	dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		s.ready.Store(true)
		log.Printf("discord: logged in as %s", r.User.String())
	})
	dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		s.ready.Store(false)
		log.Printf("discord: gateway disconnected, reconnecting")
	})
	dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		s.ready.Store(true)
	})

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	return s, nil
}

// Close shuts the websocket connection down.
func (s *Session) Close() error {
	s.ready.Store(false)
	return s.dg.Close()
}

// Ready reports whether the session is authenticated against the gateway.
func (s *Session) Ready() bool {
	return s.ready.Load() && s.dg.State.User != nil
}

// BotTag returns the bot's display identity.
func (s *Session) BotTag() string {
	user := s.dg.State.User
	if user == nil {
		return ""
	}
	return user.String()
}

// Guilds lists the cached guilds with their text-capable channels.
func (s *Session) Guilds() []models.GuildChannels {
	s.dg.State.RLock()
	defer s.dg.State.RUnlock()

	guilds := make([]models.GuildChannels, 0, len(s.dg.State.Guilds))
	for _, guild := range s.dg.State.Guilds {
		entry := models.GuildChannels{
			GuildID:   guild.ID,
			GuildName: guild.Name,
			Channels:  []models.ChannelInfo{},
		}
		for _, channel := range guild.Channels {
			if !isTextChannel(channel.Type) {
				continue
			}
			entry.Channels = append(entry.Channels, models.ChannelInfo{
				ChannelID:   channel.ID,
				ChannelName: channel.Name,
			})
		}
		guilds = append(guilds, entry)
	}
	return guilds
}

// Channel resolves a cached channel id to its guild context.
func (s *Session) Channel(channelID string) (gateway.ChannelRef, bool) {
	channel, err := s.dg.State.Channel(channelID)
	if err != nil || !isTextChannel(channel.Type) {
		return gateway.ChannelRef{}, false
	}
	ref := gateway.ChannelRef{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		GuildID:     channel.GuildID,
	}
	if guild, err := s.dg.State.Guild(channel.GuildID); err == nil {
		ref.GuildName = guild.Name
	}
	return ref, true
}

// Send dispatches a plain or embed message and returns the id Discord
// assigned to it.
func (s *Session) Send(channelID string, p gateway.Payload) (string, error) {
	var (
		msg *discordgo.Message
		err error
	)
	if p.Embed {
		msg, err = s.dg.ChannelMessageSendEmbed(channelID, buildEmbed(p))
	} else {
		msg, err = s.dg.ChannelMessageSend(channelID, p.Content)
	}
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Edit rewrites an existing message in place.
func (s *Session) Edit(channelID, messageID string, p gateway.Payload) error {
	var err error
	if p.Embed {
		_, err = s.dg.ChannelMessageEditEmbed(channelID, messageID, buildEmbed(p))
	} else {
		_, err = s.dg.ChannelMessageEdit(channelID, messageID, p.Content)
	}
	return err
}

// Fetch reports whether the remote message still exists. A Discord 404
// means it was deleted out-of-band; any other failure is a transport
// error and says nothing about the message.
func (s *Session) Fetch(channelID, messageID string) (bool, error) {
	_, err := s.dg.ChannelMessage(channelID, messageID)
	if err == nil {
		return true, nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
			return false, nil
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
	}
	return false, err
}

func buildEmbed(p gateway.Payload) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Content,
		Color:       parseColor(p.Color),
	}
}

// parseColor turns "#RRGGBB" (or "RRGGBB") into the integer Discord
// expects; anything unparsable falls back to no accent color.
func parseColor(color string) int {
	color = strings.TrimPrefix(strings.TrimSpace(color), "#")
	if color == "" {
		return 0
	}
	value, err := strconv.ParseInt(color, 16, 32)
	if err != nil || value < 0 {
		return 0
	}
	return int(value)
}

func isTextChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}
