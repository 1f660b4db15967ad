package domain

import (
	"net/url"
	"strings"
)

// ProviderID names one acquisition provider
type ProviderID string

const (
	ProviderDirectHTTP    ProviderID = "direct_http"    // Plain HTTP(S) download
	ProviderVideoPlatform ProviderID = "video_platform" // yt-dlp
	ProviderStreamingA    ProviderID = "streaming_a"    // spotdl
	ProviderStreamingB    ProviderID = "streaming_b"    // scdl
)

// AllProviders lists every known provider identity
func AllProviders() []ProviderID {
	return []ProviderID{ProviderDirectHTTP, ProviderVideoPlatform, ProviderStreamingA, ProviderStreamingB}
}

// DefaultSearchOrder returns the fallback priority used for free-text queries
func DefaultSearchOrder() []ProviderID {
	return []ProviderID{ProviderStreamingA, ProviderStreamingB, ProviderVideoPlatform, ProviderDirectHTTP}
}

// ValidateProvider checks if a provider identity is known
func ValidateProvider(id ProviderID) bool {
	for _, known := range AllProviders() {
		if id == known {
			return true
		}
	}
	return false
}

// SourceKind tells a direct URL apart from a search query
type SourceKind string

const (
	KindDirectURL   SourceKind = "direct_url"
	KindSearchQuery SourceKind = "search_query"
)

// SearchHint refines a search query
type SearchHint string

const (
	HintNone     SearchHint = ""
	HintPlain    SearchHint = "plain"
	HintPlaylist SearchHint = "album_or_playlist"
)

// SourceClassification is the result of classifying a raw input.
// Provider is set for direct URLs, Hint for search queries.
type SourceClassification struct {
	Kind     SourceKind `json:"kind"`
	Provider ProviderID `json:"provider,omitempty"`
	Hint     SearchHint `json:"hint,omitempty"`
}

// IsURL reports whether the input was classified as a direct URL
func (c SourceClassification) IsURL() bool {
	return c.Kind == KindDirectURL
}

// IsPlaylist reports whether a search query asked for an album or playlist
func (c SourceClassification) IsPlaylist() bool {
	return c.Kind == KindSearchQuery && c.Hint == HintPlaylist
}

// HostRule maps a host substring to the provider that owns it
type HostRule struct {
	Match    string     `mapstructure:"match" yaml:"match" json:"match"`
	Provider ProviderID `mapstructure:"provider" yaml:"provider" json:"provider"`
}

// DefaultHostRules returns the built-in host table
func DefaultHostRules() []HostRule {
	return []HostRule{
		{Match: "spotify.com", Provider: ProviderStreamingA},
		{Match: "soundcloud.com", Provider: ProviderStreamingB},
		{Match: "youtube.com", Provider: ProviderVideoPlatform},
		{Match: "youtu.be", Provider: ProviderVideoPlatform},
	}
}

var playlistMarkers = []string{"album", "playlist"}

// Classifier decides how a raw input should be acquired
type Classifier struct {
	rules []HostRule
}

// NewClassifier creates a classifier with the given host rules, checked in order
func NewClassifier(rules []HostRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultHostRules()
	}
	return &Classifier{rules: rules}
}

var defaultClassifier = NewClassifier(nil)

// Classify classifies a raw input using the default host rules
func Classify(raw string) SourceClassification {
	return defaultClassifier.Classify(raw)
}

// Classify never fails; every input gets a classification
func (c *Classifier) Classify(raw string) SourceClassification {
	input := strings.TrimSpace(raw)

	if IsURL(input) {
		return SourceClassification{
			Kind:     KindDirectURL,
			Provider: c.providerFor(input),
		}
	}

	hint := HintPlain
	lower := strings.ToLower(input)
	for _, marker := range playlistMarkers {
		if strings.Contains(lower, marker) {
			hint = HintPlaylist
			break
		}
	}

	return SourceClassification{Kind: KindSearchQuery, Hint: hint}
}

// providerFor matches against the parsed host, or the whole input when it does not parse
func (c *Classifier) providerFor(input string) ProviderID {
	host := strings.ToLower(input)
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	for _, rule := range c.rules {
		if rule.Match != "" && strings.Contains(host, strings.ToLower(rule.Match)) {
			return rule.Provider
		}
	}
	return ProviderDirectHTTP
}

// IsURL reports whether the input starts with an http or https scheme
func IsURL(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
