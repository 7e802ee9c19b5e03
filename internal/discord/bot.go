package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"

	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/proactive"
)

// commandTimeout bounds the work done for a single interaction.
const commandTimeout = 90 * time.Second

// Options configures a Bot.
type Options struct {
	Token          string
	GuildID        string // blank registers commands globally
	ConnectRetries uint64
	Logger         *slog.Logger
}

// Bot wraps the Discord session and manages slash commands, mentions and
// notifications. Every Discord user is one player scope.
type Bot struct {
	session *discordgo.Session
	guildID string
	retries uint64
	log     *slog.Logger
	router  *Router

	mu       sync.Mutex
	ctx      context.Context
	channels map[string]string // scope -> last channel the player used
}

// NewBot creates and configures a Discord bot (does not connect yet).
func NewBot(opts Options) (*Bot, error) {
	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("invalid bot token: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuilds

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		session:  session,
		guildID:  opts.GuildID,
		retries:  opts.ConnectRetries,
		log:      log,
		ctx:      context.Background(),
		channels: make(map[string]string),
	}, nil
}

// SetRouter wires the router to handle messages and interactions.
func (b *Bot) SetRouter(r *Router) {
	b.router = r
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onReady)
}

// Start opens the Discord connection and registers slash commands.
// Blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.MaxInterval = 30 * time.Second
	open := func() error {
		err := b.session.Open()
		if err != nil {
			b.log.Warn("discord: open failed, retrying", "err", err)
		}
		return err
	}
	if err := backoff.Retry(open, backoff.WithContext(backoff.WithMaxRetries(exp, b.retries), ctx)); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	b.log.Info("discord: connected", "user", b.session.State.User.Username)

	if err := b.registerCommands(); err != nil {
		_ = b.session.Close()
		return err
	}
	b.UpdatePresence("usa /ayuda")

	<-ctx.Done()
	b.log.Info("discord: shutting down")
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	cmds, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, Commands())
	if err != nil {
		return fmt.Errorf("discord: register commands: %w", err)
	}
	b.log.Info("discord: registered commands", "count", len(cmds), "guild", b.guildID)
	return nil
}

// UpdatePresence sets the bot's custom status.
func (b *Bot) UpdatePresence(status string) {
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{Name: status, State: status, Type: discordgo.ActivityTypeCustom},
		},
	})
	if err != nil {
		b.log.Debug("discord: update presence failed", "err", err)
	}
}

// Nudge tells a player their pet needs care.
func (b *Bot) Nudge(_ context.Context, scope string, snap pet.Snapshot, reason proactive.Reason) error {
	return b.send(scope, TemplateDistress(mention(scope), snap, reason))
}

// AnnounceLevelUp celebrates a level-up where the player last played.
func (b *Bot) AnnounceLevelUp(scope string, ev game.LevelUp) {
	if err := b.send(scope, TemplateLevelUp(mention(scope), ev)); err != nil {
		b.log.Warn("discord: level-up announcement failed", "user", scope, "err", err)
	}
}

// send posts to the player's last channel, falling back to a DM.
func (b *Bot) send(scope, content string) error {
	channelID := b.channel(scope)
	if channelID == "" {
		dm, err := b.session.UserChannelCreate(scope)
		if err != nil {
			return fmt.Errorf("discord: open dm: %w", err)
		}
		channelID = dm.ID
	}
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{scope}},
	})
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	return nil
}

func (b *Bot) remember(scope, channelID string) {
	if channelID == "" {
		return
	}
	b.mu.Lock()
	b.channels[scope] = channelID
	b.mu.Unlock()
}

func (b *Bot) channel(scope string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channels[scope]
}

func (b *Bot) baseContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("discord: ready", "user", r.User.Username, "guilds", len(r.Guilds))
}

// BotUserID returns the bot's own user ID.
func (b *Bot) BotUserID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// IsMentioned checks if the bot was @mentioned in the message.
func (b *Bot) IsMentioned(m *discordgo.MessageCreate) bool {
	id := b.BotUserID()
	for _, u := range m.Mentions {
		if u.ID == id {
			return true
		}
	}
	return false
}

// StripMention removes the bot's @mention from message text.
func StripMention(text, botID string) string {
	// Discord mentions look like <@123456> or <@!123456>
	text = strings.ReplaceAll(text, "<@"+botID+">", "")
	text = strings.ReplaceAll(text, "<@!"+botID+">", "")
	return strings.TrimSpace(text)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || b.router == nil {
		return
	}
	if !b.IsMentioned(m) && m.GuildID != "" {
		return
	}
	msg := StripMention(m.Content, b.BotUserID())
	if msg == "" {
		return
	}
	b.remember(m.Author.ID, m.ChannelID)

	ctx, cancel := context.WithTimeout(b.baseContext(), commandTimeout)
	defer cancel()
	_ = s.ChannelTyping(m.ChannelID)
	reply := b.router.Mention(ctx, m.Author.ID, msg)
	send := &discordgo.MessageSend{Content: reply.Content, Reference: m.Reference()}
	if _, err := s.ChannelMessageSendComplex(m.ChannelID, send); err != nil {
		b.log.Error("discord: send reply failed", "err", err)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || b.router == nil {
		return
	}
	cmd := commandFromInteraction(i)
	b.remember(cmd.UserID, cmd.ChannelID)

	ctx, cancel := context.WithTimeout(b.baseContext(), commandTimeout)
	defer cancel()

	if !Deferred(cmd.Name) {
		b.respond(i.Interaction, b.router.Dispatch(ctx, cmd))
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.log.Error("discord: defer failed", "command", cmd.Name, "err", err)
		return
	}
	reply := b.router.Dispatch(ctx, cmd)
	edit := &discordgo.WebhookEdit{Content: &reply.Content}
	if reply.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{reply.Embed}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.log.Error("discord: edit response failed", "command", cmd.Name, "err", err)
	}
}

func (b *Bot) respond(i *discordgo.Interaction, reply Reply) {
	data := &discordgo.InteractionResponseData{Content: reply.Content}
	if reply.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{reply.Embed}
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.log.Error("discord: respond failed", "err", err)
	}
}

// commandFromInteraction flattens a slash command interaction.
func commandFromInteraction(i *discordgo.InteractionCreate) Command {
	data := i.ApplicationCommandData()
	cmd := Command{
		Name:      data.Name,
		ChannelID: i.ChannelID,
		Options:   make(map[string]any, len(data.Options)),
	}
	var user *discordgo.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
		cmd.UserName = i.Member.Nick
	} else {
		user = i.User
	}
	if user != nil {
		cmd.UserID = user.ID
		if cmd.UserName == "" {
			cmd.UserName = user.GlobalName
		}
		if cmd.UserName == "" {
			cmd.UserName = user.Username
		}
	}

	for _, o := range data.Options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			cmd.Options[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			cmd.Options[o.Name] = int(o.IntValue())
		case discordgo.ApplicationCommandOptionBoolean:
			cmd.Options[o.Name] = o.BoolValue()
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := o.Value.(string)
			if data.Resolved == nil {
				continue
			}
			if a, ok := data.Resolved.Attachments[id]; ok {
				cmd.Attachment = &Attachment{URL: a.URL, ContentType: a.ContentType, Size: a.Size}
			}
		}
	}
	return cmd
}
