// Package notify announces completed simulation runs over webhooks.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tos-network/emission-sim/internal/config"
	"github.com/tos-network/emission-sim/internal/storage"
	"github.com/tos-network/emission-sim/internal/util"
)

// Retry configuration
const (
	MaxRetries     = 3
	RetryBaseDelay = 2 * time.Second
)

// Notifier handles sending notifications
type Notifier struct {
	cfg    *config.NotifyConfig
	client *http.Client
}

// NewNotifier creates a new notifier
func NewNotifier(cfg *config.NotifyConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyRunComplete sends notifications when a run finishes
func (n *Notifier) NotifyRunComplete(rec *storage.RunRecord) {
	if !n.cfg.Enabled {
		return
	}

	if n.cfg.DiscordURL != "" {
		go n.sendDiscordRunNotification(rec)
	}

	if n.cfg.TelegramBot != "" && n.cfg.TelegramChat != "" {
		go n.sendTelegramRunNotification(rec)
	}
}

// DiscordEmbed represents a Discord embed object
type DiscordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Footer      *DiscordFooter `json:"footer,omitempty"`
}

// DiscordField represents a field in a Discord embed
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordFooter represents the footer of a Discord embed
type DiscordFooter struct {
	Text string `json:"text"`
}

// DiscordMessage represents a Discord webhook message
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// sendDiscordRunNotification sends a run summary to Discord
func (n *Notifier) sendDiscordRunNotification(rec *storage.RunRecord) {
	fields := []DiscordField{
		{Name: "Run", Value: rec.RunID, Inline: true},
		{Name: "Trials", Value: fmt.Sprintf("%d", rec.Trials), Inline: true},
		{Name: "Elapsed", Value: fmt.Sprintf("%.1fs", float64(rec.ElapsedMS)/1000), Inline: true},
	}
	for _, p := range rec.Pools {
		fields = append(fields, DiscordField{
			Name: fmt.Sprintf("Pool %s (%.3g)", p.Name, p.Share),
			Value: fmt.Sprintf("blocks: %.1f +/- %.1f\nreward: %.2f +/- %.2f",
				p.BlocksMean, p.BlocksErr, p.RewardMean, p.RewardErr),
		})
	}

	embed := DiscordEmbed{
		Title:       "Simulation Complete",
		Description: "Tail emission reward distribution estimate finished",
		Color:       0x00FF00, // Green
		Fields:      fields,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer: &DiscordFooter{
			Text: "emission-sim",
		},
	}

	if n.cfg.ReportURL != "" {
		embed.URL = n.cfg.ReportURL
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{embed},
	}

	n.sendDiscordMessageWithRetry(msg)
}

// sendDiscordMessageWithRetry sends a message to Discord with exponential backoff retry
func (n *Notifier) sendDiscordMessageWithRetry(msg DiscordMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		util.Warnf("Failed to marshal Discord message: %v", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s, 4s, 8s
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			time.Sleep(delay)
		}

		resp, err := n.client.Post(n.cfg.DiscordURL, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}

		resp.Body.Close()

		if resp.StatusCode < 400 {
			return // Success
		}

		// Rate limited - wait longer
		if resp.StatusCode == 429 {
			time.Sleep(5 * time.Second)
			continue
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if lastErr != nil {
		util.Warnf("Failed to send Discord notification after %d retries: %v", MaxRetries, lastErr)
	}
}

// TelegramMessage represents a Telegram bot message
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// sendTelegramRunNotification sends a run summary to Telegram
func (n *Notifier) sendTelegramRunNotification(rec *storage.RunRecord) {
	var b strings.Builder
	fmt.Fprintf(&b, "*Simulation Complete*\n\n")
	fmt.Fprintf(&b, "Run: `%s`\nTrials: `%d`\nElapsed: `%.1fs`\n", rec.RunID, rec.Trials, float64(rec.ElapsedMS)/1000)
	for _, p := range rec.Pools {
		fmt.Fprintf(&b, "\n*Pool %s*\nblocks: `%.1f +/- %.1f`\nreward: `%.2f +/- %.2f`\n",
			p.Name, p.BlocksMean, p.BlocksErr, p.RewardMean, p.RewardErr)
	}

	n.sendTelegramMessageWithRetry(b.String())
}

// sendTelegramMessageWithRetry sends a message via Telegram with exponential backoff retry
func (n *Notifier) sendTelegramMessageWithRetry(text string) {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBot)

	msg := TelegramMessage{
		ChatID:    n.cfg.TelegramChat,
		Text:      text,
		ParseMode: "Markdown",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		util.Warnf("Failed to marshal Telegram message: %v", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			time.Sleep(delay)
		}

		resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}

		resp.Body.Close()

		if resp.StatusCode < 400 {
			return // Success
		}

		// Rate limited
		if resp.StatusCode == 429 {
			time.Sleep(5 * time.Second)
			continue
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}

	if lastErr != nil {
		util.Warnf("Failed to send Telegram notification after %d retries: %v", MaxRetries, lastErr)
	}
}
