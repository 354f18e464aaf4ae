package community

// Settings holds the behavior an administrator configured for a community
type Settings struct {
	AutoReplyEnabled  bool   `json:"autoReplyEnabled"`
	AutoReplyText     string `json:"autoReplyText"`
	ModerationEnabled bool   `json:"moderationEnabled"`
}

// DefaultSettings returns the settings of a community that was never configured: everything disabled
func DefaultSettings() Settings {
	return Settings{}
}

// AutoReplies returns true if the settings call for an auto-reply to every message
func (s Settings) AutoReplies() bool {
	return s.AutoReplyEnabled && s.AutoReplyText != ""
}
