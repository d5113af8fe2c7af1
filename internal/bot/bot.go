// Package bot exposes the scanner over Discord slash commands.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"arb-profit-bot/internal/app"
	"arb-profit-bot/internal/scan"
)

type Bot struct {
	session *discordgo.Session
	clients *app.Clients

	mu     sync.Mutex
	active map[string]context.CancelFunc // channel ID -> running scan

	// base is the parent of every scan context so closing the bot
	// cancels in-flight scans too.
	base context.Context
}

func New(token string, clients *app.Clients) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return &Bot{
		session: session,
		clients: clients,
		active:  make(map[string]context.CancelFunc),
	}, nil
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "update",
		Description: "Update profit calculations for sheets",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "sheet",
				Description: "Specify 'all' or a specific tab name to update",
				Required:    false,
			},
		},
	},
	{
		Name:        "stop",
		Description: "Stop the current update process",
	},
	{
		Name:        "updateall",
		Description: "Update ALL sheets, alerting only on high-margin finds",
	},
}

// Run connects, registers the slash commands and serves interactions
// until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.base = ctx
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Msg("Logged in")
	})
	b.session.AddHandler(b.handleInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commands); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	log.Info().Int("commands", len(commands)).Msg("Slash commands registered")

	<-ctx.Done()
	b.cancelAll()
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	switch i.ApplicationCommandData().Name {
	case "update":
		b.handleUpdate(s, i, false)
	case "updateall":
		b.handleUpdate(s, i, true)
	case "stop":
		b.handleStop(s, i)
	}
}

func (b *Bot) handleUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, highOnly bool) {
	if !isAdmin(i) {
		respondEphemeral(s, i, "❌ You need administrator rights to use this command.")
		return
	}

	channelID := i.ChannelID
	scanCtx, ok := b.acquire(channelID)
	if !ok {
		respondEphemeral(s, i, "❌ An update is already in progress in this channel. Use `/stop` to cancel it first.")
		return
	}

	sheet := "all"
	if !highOnly {
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "sheet" {
				sheet = opt.StringValue()
			}
		}
	}

	respond(s, i, "🔄 Starting update process...")
	go b.runScan(scanCtx, s, channelID, sheet, highOnly)
}

func (b *Bot) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.Lock()
	cancel, ok := b.active[i.ChannelID]
	b.mu.Unlock()
	if !ok {
		respondEphemeral(s, i, "❌ No active update process to stop.")
		return
	}
	cancel()
	respond(s, i, "🛑 Update process will stop after the current batch completes.")
}

// runScan executes one scan and reports the outcome to the channel.
// The channel guard is released whatever happens.
func (b *Bot) runScan(ctx context.Context, s *discordgo.Session, channelID, sheet string, highOnly bool) {
	defer b.release(channelID)

	notifier := &channelNotifier{session: s, channelID: channelID}
	orch := scan.New(b.clients.Keepa, b.clients.Sheet, notifier, b.clients.Budget, b.clients.Cursor, scan.Config{
		BatchSize:     app.DefaultBatchSize,
		MaxRowsPerRun: app.DefaultMaxRowsPerRun,
		HighOnly:      highOnly,
	})

	var summary *scan.Summary
	var err error
	if strings.EqualFold(sheet, "all") {
		summary, err = orch.ScanAll(ctx)
	} else {
		summary, err = b.scanNamedSheet(ctx, orch, sheet)
	}
	if err != nil {
		sendMessage(s, channelID, fmt.Sprintf("❌ An error occurred: %v", err))
		if summary == nil {
			return
		}
	}

	b.sendResults(s, channelID, summary, highOnly)
}

func (b *Bot) scanNamedSheet(ctx context.Context, orch *scan.Orchestrator, title string) (*scan.Summary, error) {
	worksheets, err := b.clients.Sheet.Worksheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	for _, ws := range worksheets {
		if strings.EqualFold(ws.Title, title) {
			return orch.ScanSheet(ctx, ws)
		}
	}
	return nil, fmt.Errorf("sheet '%s' not found", title)
}

func (b *Bot) acquire(channelID string) (context.Context, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.active[channelID]; busy {
		return nil, false
	}
	ctx, cancel := context.WithCancel(b.base)
	b.active[channelID] = cancel
	return ctx, true
}

func (b *Bot) release(channelID string) {
	b.mu.Lock()
	if cancel, ok := b.active[channelID]; ok {
		cancel()
		delete(b.active, channelID)
	}
	b.mu.Unlock()
}

func (b *Bot) cancelAll() {
	b.mu.Lock()
	for id, cancel := range b.active {
		cancel()
		delete(b.active, id)
	}
	b.mu.Unlock()
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: message},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

func sendMessage(s *discordgo.Session, channelID, message string) {
	if _, err := s.ChannelMessageSend(channelID, message); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("Failed to send message")
	}
}

// channelNotifier forwards scan progress and alerts to the channel that
// started the scan.
type channelNotifier struct {
	session   *discordgo.Session
	channelID string
}

func (n *channelNotifier) Notify(ctx context.Context, message string, isError bool) {
	if isError {
		message = "⚠️ " + message
	}
	sendMessage(n.session, n.channelID, message)
}
