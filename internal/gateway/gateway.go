package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"botdeck/internal/metrics"
	"botdeck/internal/models"
	"botdeck/internal/redis"
	"botdeck/internal/store"
)

// Payload is an outgoing message body in either plain or embed form.
// Title and Color are only sent when Embed is set.
type Payload struct {
	Content string
	Embed   bool
	Title   string
	Color   string
}

// ChannelRef identifies a channel in the session's guild cache together
// with the names recorded alongside each message.
type ChannelRef struct {
	ChannelID   string
	ChannelName string
	GuildID     string
	GuildName   string
}

// RemoteSession is the live chat-platform connection the gateway talks
// through. The concrete implementation lives in internal/discord; tests
// substitute a recording double.
type RemoteSession interface {
	Ready() bool
	BotTag() string
	Guilds() []models.GuildChannels
	Channel(channelID string) (ChannelRef, bool)
	Send(channelID string, p Payload) (string, error)
	Edit(channelID, messageID string, p Payload) error
	Fetch(channelID, messageID string) (bool, error)
}

// Health describes the bot session's connectivity.
type Health struct {
	Ready  bool   `json:"botReady"`
	BotTag string `json:"botTag"`
}

const channelCacheKey = "botdeck:channels"

// Gateway is the only component that talks to the remote platform and
// keeps the record store consistent with it. All mutations run through
// the store's single-writer Update, so two concurrent edits cannot
// overwrite each other's persisted changes.
type Gateway struct {
	session  RemoteSession
	store    *store.Store
	cache    *redis.Client
	cacheTTL time.Duration
}

// New builds a gateway over the given session and record store. cache
// may be nil to disable channel-list caching.
func New(session RemoteSession, st *store.Store, cache *redis.Client, cacheTTL time.Duration) *Gateway {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Gateway{session: session, store: st, cache: cache, cacheTTL: cacheTTL}
}

// Send dispatches a new message to the channel and persists its record.
// The record's id is the remote-assigned message id captured from the
// send response. There is no idempotency key: two identical calls create
// two remote messages and two records.
func (g *Gateway) Send(channelID, content string, useEmbed bool, title, color string) (rec *models.MessageRecord, err error) {
	defer func() { observe("send", err) }()

	channelID = strings.TrimSpace(channelID)
	content = strings.TrimSpace(content)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel is required", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}

	ref, ok := g.session.Channel(channelID)
	if !ok {
		return nil, fmt.Errorf("%w: channel %s is not visible to the bot", ErrNotFound, channelID)
	}

	title = strings.TrimSpace(title)
	color = strings.TrimSpace(color)
	if !useEmbed {
		// Title and color only carry meaning on embeds.
		title, color = "", ""
	}

	remoteID, err := g.session.Send(channelID, Payload{
		Content: content,
		Embed:   useEmbed,
		Title:   title,
		Color:   color,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: send to channel %s: %v", ErrRemoteOperation, channelID, err)
	}

	record := models.MessageRecord{
		ID:          remoteID,
		ChannelID:   ref.ChannelID,
		ChannelName: ref.ChannelName,
		GuildID:     ref.GuildID,
		GuildName:   ref.GuildName,
		Content:     content,
		Title:       title,
		Color:       color,
		Timestamp:   time.Now().UTC(),
		IsEmbed:     useEmbed,
	}

	err = g.store.Update(func(records []models.MessageRecord) ([]models.MessageRecord, error) {
		records = append(records, record)
		metrics.RecordCount.Set(float64(len(records)))
		return records, nil
	})
	if err != nil {
		// The remote message exists but never made it into the history.
		// Logged and surfaced; there is no compensating remote delete.
		log.Printf("gateway: message %s sent but record persist failed: %v", remoteID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &record, nil
}

// Edit rewrites an existing message remotely and updates its record.
// The message stays (or becomes) an embed if the original record was one
// or the edit carries a non-empty title/color after fallback; an embed
// never reverts to plain through an edit.
func (g *Gateway) Edit(messageID, content, title, color string) (rec *models.MessageRecord, err error) {
	defer func() { observe("edit", err) }()

	messageID = strings.TrimSpace(messageID)
	content = strings.TrimSpace(content)
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}

	var updated models.MessageRecord
	err = g.store.Update(func(records []models.MessageRecord) ([]models.MessageRecord, error) {
		idx := -1
		for i := range records {
			if records[i].ID == messageID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: no record for message %s", ErrNotFound, messageID)
		}
		record := records[idx]

		// The remote message may have been deleted out-of-band; editing
		// a ghost would silently diverge, so require it to still exist.
		// A transport failure during the check is not a missing message.
		found, err := g.session.Fetch(record.ChannelID, messageID)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch message %s: %v", ErrRemoteOperation, messageID, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: message %s no longer exists remotely", ErrNotFound, messageID)
		}

		newTitle := strings.TrimSpace(title)
		if newTitle == "" {
			newTitle = record.Title
		}
		newColor := strings.TrimSpace(color)
		if newColor == "" {
			newColor = record.Color
		}
		isEmbed := record.IsEmbed || newTitle != "" || newColor != ""

		if err := g.session.Edit(record.ChannelID, messageID, Payload{
			Content: content,
			Embed:   isEmbed,
			Title:   newTitle,
			Color:   newColor,
		}); err != nil {
			return nil, fmt.Errorf("%w: edit message %s: %v", ErrRemoteOperation, messageID, err)
		}

		now := time.Now().UTC()
		record.Content = content
		record.Title = newTitle
		record.Color = newColor
		record.IsEmbed = isEmbed
		record.LastEdited = &now
		records[idx] = record
		updated = record
		return records, nil
	})
	if err != nil {
		if isGatewayError(err) {
			return nil, err
		}
		// The remote edit went through; local history now lags the
		// remote message. Logged and surfaced, no compensating re-edit.
		log.Printf("gateway: message %s edited remotely but record persist failed: %v", messageID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &updated, nil
}

// Delete removes the local record only. The remote message is left in
// place; this hides history, it does not retract anything.
func (g *Gateway) Delete(messageID string) (err error) {
	defer func() { observe("delete", err) }()

	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return fmt.Errorf("%w: message id is required", ErrValidation)
	}

	err = g.store.Update(func(records []models.MessageRecord) ([]models.MessageRecord, error) {
		kept := records[:0]
		for _, record := range records {
			if record.ID != messageID {
				kept = append(kept, record)
			}
		}
		if len(kept) == len(records) {
			return nil, fmt.Errorf("%w: no record for message %s", ErrNotFound, messageID)
		}
		metrics.RecordCount.Set(float64(len(kept)))
		return kept, nil
	})
	if err != nil {
		if isGatewayError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// ListMessages returns a snapshot of the full message history.
func (g *Gateway) ListMessages() []models.MessageRecord {
	return g.store.LoadAll()
}

// Status reports whether the bot session is authenticated and, if so,
// its display identity.
func (g *Gateway) Status() Health {
	h := Health{Ready: g.session.Ready()}
	if h.Ready {
		h.BotTag = g.session.BotTag()
	}
	return h
}

// ListChannels returns the bot's text channels grouped by guild, read
// from the session's guild cache and optionally memoized in redis so
// polling dashboards don't re-serialize the guild set on every request.
func (g *Gateway) ListChannels(ctx context.Context) ([]models.GuildChannels, error) {
	if !g.session.Ready() {
		return nil, ErrServiceUnavailable
	}

	if g.cache.Enabled() {
		if raw, err := g.cache.Get(ctx, channelCacheKey); err == nil {
			var guilds []models.GuildChannels
			if err := json.Unmarshal([]byte(raw), &guilds); err == nil {
				return guilds, nil
			}
		}
	}

	guilds := g.session.Guilds()
	if guilds == nil {
		guilds = []models.GuildChannels{}
	}

	if g.cache.Enabled() {
		if raw, err := json.Marshal(guilds); err == nil {
			if err := g.cache.Set(ctx, channelCacheKey, raw, g.cacheTTL); err != nil {
				log.Printf("gateway: cache channel list: %v", err)
			}
		}
	}
	return guilds, nil
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GatewayOps.WithLabelValues(op, result).Inc()
}
