// Package icons lists the monster icons quests and avatars can use.
package icons

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	// DefaultListingURL is the GitHub contents listing of the icon directory.
	DefaultListingURL = "https://api.github.com/repos/RoboMechE/MHW-Database/contents/monster/assets/icons?ref=gh-pages"

	// DefaultAssetsURL serves the icon files themselves.
	DefaultAssetsURL = "https://raw.githubusercontent.com/RoboMechE/MHW-Database/gh-pages/monster/assets/icons"
)

// Icon is one selectable monster icon.
type Icon struct {
	FileName    string `json:"fileName"`
	DisplayName string `json:"displayName"`
}

// Fallback is served whenever the listing cannot be fetched.
var Fallback = []Icon{
	{FileName: "Great_Jagras_Icon.webp", DisplayName: "Great Jagras"},
	{FileName: "Rathalos_Icon.webp", DisplayName: "Rathalos"},
	{FileName: "Nergigante_Icon.webp", DisplayName: "Nergigante"},
}

var iconSuffix = regexp.MustCompile(`(?i)_Icon\.webp$`)

// Catalog fetches the icon listing once and remembers the answer.
type Catalog struct {
	listingURL string
	assetsURL  string
	client     *fasthttp.Client
	timeout    time.Duration
	logger     zerolog.Logger

	mu     sync.Mutex
	cached []Icon
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClient replaces the HTTP client.
func WithClient(c *fasthttp.Client) Option {
	return func(cat *Catalog) { cat.client = c }
}

// WithURLs overrides where the listing and the assets come from. Empty
// values keep the defaults.
func WithURLs(listing, assets string) Option {
	return func(cat *Catalog) {
		if listing != "" {
			cat.listingURL = listing
		}
		if assets != "" {
			cat.assetsURL = strings.TrimSuffix(assets, "/")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cat *Catalog) { cat.logger = l }
}

func New(opts ...Option) *Catalog {
	c := &Catalog{
		listingURL: DefaultListingURL,
		assetsURL:  DefaultAssetsURL,
		client: &fasthttp.Client{
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: 10 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the available icons. Any failure yields Fallback; it never
// returns an empty list.
func (c *Catalog) List(ctx context.Context) []Icon {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached
	}

	icons, err := c.fetch(ctx)
	if err != nil || len(icons) == 0 {
		c.logger.Warn().Err(err).Msg("icon listing unavailable, using built-in icons")
		icons = append([]Icon(nil), Fallback...)
	}
	c.cached = icons
	return icons
}

// AssetURL is where fileName can be downloaded.
func (c *Catalog) AssetURL(fileName string) string {
	return c.assetsURL + "/" + fileName
}

// Lookup finds an icon by file name or, ignoring case, display name.
func (c *Catalog) Lookup(ctx context.Context, name string) (Icon, bool) {
	for _, icon := range c.List(ctx) {
		if icon.FileName == name || strings.EqualFold(icon.DisplayName, name) {
			return icon, true
		}
	}
	return Icon{}, false
}

type entry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (c *Catalog) fetch(ctx context.Context) ([]Icon, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.listingURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "questlog")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("icons: fetch listing: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("icons: listing returned %d", resp.StatusCode())
	}

	var entries []entry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("icons: decode listing: %w", err)
	}
	icons := make([]Icon, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(strings.ToLower(e.Name), ".webp") {
			continue
		}
		icons = append(icons, Icon{FileName: e.Name, DisplayName: DisplayName(e.Name)})
	}
	return icons, nil
}

// DisplayName derives a readable name from an icon file name.
func DisplayName(fileName string) string {
	return strings.ReplaceAll(iconSuffix.ReplaceAllString(fileName, ""), "_", " ")
}
