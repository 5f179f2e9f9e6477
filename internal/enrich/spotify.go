package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIBase  = "https://api.spotify.com/v1"

	// Track lookups are best-effort context: keep them short and retry
	// only transient failures so a stalled API never holds up a reply.
	trackLookupTimeout = 5 * time.Second
	trackLookupRetries = 2
)

var trackIDRe = regexp.MustCompile(`open\.spotify\.com/track/([A-Za-z0-9]+)`)

// ExtractTrackID returns the track ID from an open.spotify.com/track
// URL, or "" when the URL is not a track link.
func ExtractTrackID(url string) string {
	m := trackIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// TrackInfo is the subset of the Spotify track object used for
// annotations.
type TrackInfo struct {
	Name        string
	Artist      string // comma-joined artist names
	Album       string
	ReleaseDate string
	DurationMS  int
	Popularity  int
}

// SpotifyClient fetches track metadata via the Spotify Web API using
// the client-credentials flow. A nil *SpotifyClient is valid and
// reports itself disabled.
type SpotifyClient struct {
	client  *http.Client
	apiBase string
	timeout time.Duration
}

// NewSpotifyClient builds a client from application credentials.
// Returns nil when either credential is empty; callers treat a nil
// client as the feature being off.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string, logger *slog.Logger) *SpotifyClient {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	client := conf.Client(ctx)
	client.Timeout = trackLookupTimeout
	logger.Info("spotify track lookups enabled")
	return &SpotifyClient{
		client:  client,
		apiBase: spotifyAPIBase,
		timeout: trackLookupTimeout,
	}
}

// Enabled reports whether track lookups can be attempted.
func (s *SpotifyClient) Enabled() bool { return s != nil }

// spotifyTrack is the wire shape of GET /v1/tracks/{id}, trimmed to
// the fields we read.
type spotifyTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
	DurationMS int `json:"duration_ms"`
	Popularity int `json:"popularity"`
}

// TrackInfo fetches metadata for a track ID. Each attempt carries its
// own deadline; transport errors and 5xx responses are retried a
// bounded number of times, everything else fails immediately.
func (s *SpotifyClient) TrackInfo(ctx context.Context, trackID string) (*TrackInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= trackLookupRetries; attempt++ {
		ti, retryable, err := s.fetchTrack(ctx, trackID)
		if err == nil {
			return ti, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *SpotifyClient) fetchTrack(ctx context.Context, trackID string) (*TrackInfo, bool, error) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = trackLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", s.apiBase+"/tracks/"+trackID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("spotify: create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("spotify: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("spotify: track %s: http %d: %s", trackID, resp.StatusCode, body)
		return nil, resp.StatusCode >= 500, err
	}

	var tr spotifyTrack
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, false, fmt.Errorf("spotify: decode track: %w", err)
	}

	names := make([]string, 0, len(tr.Artists))
	for _, a := range tr.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return &TrackInfo{
		Name:        tr.Name,
		Artist:      strings.Join(names, ", "),
		Album:       tr.Album.Name,
		ReleaseDate: tr.Album.ReleaseDate,
		DurationMS:  tr.DurationMS,
		Popularity:  tr.Popularity,
	}, false, nil
}

// Annotation formats a track as a context line.
func (ti *TrackInfo) Annotation() string {
	return fmt.Sprintf("🎵 Spotify Track → %s by %s (album: %s, released: %s, popularity: %d)",
		ti.Name, ti.Artist, ti.Album, ti.ReleaseDate, ti.Popularity)
}
