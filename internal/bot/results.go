package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"arb-profit-bot/internal/scan"
)

// Discord caps embed field values at 1024 characters.
const maxFieldLength = 1024

// sendResults posts tier pings and a results embed. In high-only mode
// each high-tier find gets its own detailed embed instead.
func (b *Bot) sendResults(s *discordgo.Session, channelID string, summary *scan.Summary, highOnly bool) {
	if highOnly {
		b.sendHighOnlyResults(s, channelID, summary)
		return
	}

	if len(summary.High) > 0 {
		sendMessage(s, channelID, "🔴 @here HIGH PROFIT ITEMS FOUND!")
	}
	if len(summary.Medium) > 0 {
		sendMessage(s, channelID, "🟡 @here MEDIUM PROFIT ITEMS FOUND!")
	}
	if len(summary.Low) > 0 {
		sendMessage(s, channelID, "🟢 @here LOW PROFIT ITEMS FOUND!")
	}

	embed := &discordgo.MessageEmbed{
		Title: "📊 Profit Update Results",
		Color: 0x3498db,
	}
	addTierField(embed, "🔴 High Profit Items (>15%)", summary.High)
	addTierField(embed, "🟡 Medium Profit Items (>10%)", summary.Medium)
	addTierField(embed, "🟢 Low Profit Items (>£30)", summary.Low)

	if len(embed.Fields) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "No Items Found",
			Value: "No items met the profit thresholds.",
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d rows processed", summary.RowsProcessed),
	}

	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Warn().Err(err).Msg("Failed to send results embed")
	}
}

func (b *Bot) sendHighOnlyResults(s *discordgo.Session, channelID string, summary *scan.Summary) {
	if len(summary.High) == 0 {
		sendMessage(s, channelID, "No high profit margin items (>15%) found.")
		return
	}

	for _, item := range summary.High {
		embed := &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🔥 Arbitrage find: %s", item.ASIN),
			URL:   fmt.Sprintf("https://www.amazon.co.uk/dp/%s", item.ASIN),
			Color: 0xe74c3c,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Sheet", Value: fmt.Sprintf("%s!%d", item.Sheet, item.Row+1), Inline: true},
				{Name: "ASIN", Value: fmt.Sprintf("`%s`", item.ASIN), Inline: true},
				{Name: "Profit Margin", Value: fmt.Sprintf("**%s%%**", item.Margin.StringFixed(2)), Inline: true},
				{Name: "Buy Price", Value: "£" + item.BuyPrice.StringFixed(2), Inline: true},
				{Name: "Sell Price", Value: "£" + item.SellPrice.StringFixed(2), Inline: true},
				{Name: "ROI", Value: item.ROI.StringFixed(2) + "%", Inline: true},
				{Name: "SPM", Value: fmt.Sprintf("%d", item.MonthlySold), Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "Arbitrage Bot • FBA Optimised"},
		}
		_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: "@everyone :rotating_light: :red_circle: **BIG PROFIT MARGIN ALERT!** :red_circle: :rotating_light:",
			Embed:   embed,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to send alert embed")
		}
	}
}

func addTierField(embed *discordgo.MessageEmbed, name string, items []scan.Item) {
	if len(items) == 0 {
		return
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, formatItem(item))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  name,
		Value: joinCapped(lines, maxFieldLength),
	})
}

func formatItem(item scan.Item) string {
	return fmt.Sprintf("%s!%d `%s` buy £%s sell £%s profit £%s (%s%%)",
		item.Sheet, item.Row+1, item.ASIN,
		item.BuyPrice.StringFixed(2), item.SellPrice.StringFixed(2),
		item.Profit.StringFixed(2), item.Margin.StringFixed(2))
}

// joinCapped joins lines with newlines, dropping the tail once the
// limit would be crossed.
func joinCapped(lines []string, limit int) string {
	var sb strings.Builder
	dropped := 0
	for _, line := range lines {
		if sb.Len()+len(line)+20 > limit {
			dropped++
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if dropped > 0 {
		fmt.Fprintf(&sb, "\n... and %d more", dropped)
	}
	return sb.String()
}
