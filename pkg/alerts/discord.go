package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord embed sidebar colors per level.
const (
	discordBlue   = 0x2196F3
	discordOrange = 0xFF9800
	discordRed    = 0xF44336
)

// DiscordNotifier sends alerts to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	username   string
	avatarURL  string
	template   string
	client     *http.Client
}

// NewDiscordNotifier creates a Discord webhook notifier. template may contain
// a {message} placeholder that is replaced with the alert subject; when empty
// the subject is posted as-is.
func NewDiscordNotifier(webhookURL, username, avatarURL, template string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		avatarURL:  avatarURL,
		template:   template,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Send(ctx context.Context, event Event) error {
	color := discordBlue
	switch event.Level {
	case LevelWarning:
		color = discordOrange
	case LevelCritical:
		color = discordRed
	}

	content := event.Subject
	if d.template != "" {
		content = strings.ReplaceAll(d.template, "{message}", event.Subject)
	}

	payload := discordPayload{
		Username:  d.username,
		AvatarURL: d.avatarURL,
		Content:   content,
		Embeds: []discordEmbed{
			{
				Title:       event.Subject,
				Description: event.Message,
				Color:       color,
				Timestamp:   event.At.UTC().Format(time.RFC3339),
				Fields: []discordField{
					{Name: "Level", Value: string(event.Level), Inline: true},
					{Name: "Usage", Value: fmt.Sprintf("%.2fGB / %.0fGB (%.1f%%)", event.MonthlyGB, event.LimitGB, event.UsagePct()), Inline: true},
				},
				Footer: discordFooter{Text: "Traffic Guardian"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}
	return nil
}

type discordPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Fields      []discordField `json:"fields"`
	Footer      discordFooter  `json:"footer"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}
