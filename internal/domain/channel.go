package domain

// Channel is the per-event community surface. Access to it is derived from
// registration state and never stored.
type Channel struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	PostCount int    `json:"post_count"`
}

// ChannelAccess is a channel as seen by one viewer
type ChannelAccess struct {
	ChannelID  string `json:"channel_id"`
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	EventTitle string `json:"event_title"`
	EventSlug  string `json:"event_slug"`
	Category   string `json:"category"`
	PostCount  int    `json:"post_count"`
	IsLocked   bool   `json:"is_locked"`
}

// ChannelDetail is returned to viewers with access
type ChannelDetail struct {
	Channel
	EventTitle        string `json:"event_title"`
	WhatsappGroupLink string `json:"whatsapp_group_link,omitempty"`
	DiscordLink       string `json:"discord_link,omitempty"`
}
