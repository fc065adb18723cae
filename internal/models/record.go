package models

import "time"

// MessageRecord mirrors one message the bot has sent to Discord.
// The id is assigned by Discord during the send, so a record only
// exists after the remote message does.
type MessageRecord struct {
	ID          string     `json:"id"`
	ChannelID   string     `json:"channelId"`
	ChannelName string     `json:"channelName"`
	GuildID     string     `json:"guildId"`
	GuildName   string     `json:"guildName"`
	Content     string     `json:"content"`
	Title       string     `json:"title,omitempty"`
	Color       string     `json:"color,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	LastEdited  *time.Time `json:"lastEdited,omitempty"`
	IsEmbed     bool       `json:"isEmbed"`
}

// ChannelInfo is one text channel the bot can post to.
type ChannelInfo struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

// GuildChannels groups the bot's postable channels by guild.
type GuildChannels struct {
	GuildID   string        `json:"guildId"`
	GuildName string        `json:"guildName"`
	Channels  []ChannelInfo `json:"channels"`
}
