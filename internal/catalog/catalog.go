// Package catalog is the static lookup table from application names to
// launch URIs and default intervention durations. Immutable at runtime.
package catalog

import "time"

// FallbackDuration is used for applications the catalog does not know.
const FallbackDuration = 10 * time.Second

// Entry describes one known application.
type Entry struct {
	URI      string
	Duration time.Duration
}

// Catalog maps canonical application names to their entries.
type Catalog struct {
	entries map[string]Entry
}

// Feed apps get a longer breathing window than messaging apps.
const (
	feedDuration      = 12 * time.Second
	messagingDuration = 5 * time.Second
)

// New returns the compiled catalog of known applications.
func New() *Catalog {
	return &Catalog{entries: map[string]Entry{
		"Instagram":   {URI: "instagram://", Duration: feedDuration},
		"Twitter":     {URI: "twitter://", Duration: feedDuration},
		"X":           {URI: "twitter://", Duration: feedDuration},
		"X (Twitter)": {URI: "twitter://", Duration: feedDuration},
		"TikTok":      {URI: "tiktok://", Duration: feedDuration},
		"Facebook":    {URI: "fb://", Duration: feedDuration},
		"YouTube":     {URI: "youtube://", Duration: feedDuration},
		"Reddit":      {URI: "reddit://", Duration: feedDuration},
		"LinkedIn":    {URI: "linkedin://", Duration: 8 * time.Second},
		"Snapchat":    {URI: "snapchat://", Duration: messagingDuration},
		"WhatsApp":    {URI: "whatsapp://", Duration: messagingDuration},
		"Messenger":   {URI: "fb-messenger://", Duration: messagingDuration},
	}}
}

// URIFor returns the launch URI for an application. Unknown names yield
// no URI rather than an error; callers treat a missing mapping as
// "cannot auto-launch" and carry on.
func (c *Catalog) URIFor(appName string) (string, bool) {
	e, ok := c.entries[appName]
	if !ok {
		return "", false
	}
	return e.URI, true
}

// DefaultDuration returns the intervention duration for an application,
// falling back to a generic duration for unknown names.
func (c *Catalog) DefaultDuration(appName string) time.Duration {
	if e, ok := c.entries[appName]; ok {
		return e.Duration
	}
	return FallbackDuration
}

// Known reports whether the catalog has an entry for the application.
func (c *Catalog) Known(appName string) bool {
	_, ok := c.entries[appName]
	return ok
}
