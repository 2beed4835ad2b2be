package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
	"github.com/oshokin/eap-updater/internal/logger"
	"github.com/oshokin/eap-updater/internal/version"
)

// FeedFilename is the manifest each repository host serves under its URL.
const FeedFilename = "eap-plugins.yaml"

var errBadHTTPStatus = errors.New("unexpected http status")

// Feed is the YAML document a host advertises.
type Feed struct {
	// Plugins lists the descriptors the host offers.
	Plugins []FeedEntry `yaml:"plugins"`
}

// FeedEntry is one advertised plugin version.
type FeedEntry struct {
	// ID is the plugin identity.
	ID string `yaml:"id"`
	// Version is the advertised version string.
	Version string `yaml:"version"`
	// File is the artifact URL.
	File string `yaml:"file"`
	// Checksum is the base64-encoded SHA-512 checksum of the artifact.
	Checksum string `yaml:"checksum"`
}

// Scanner queries repository hosts for plugin descriptors.
type Scanner struct {
	// client performs feed fetches.
	client *http.Client
}

// NewScanner creates a scanner using the provided HTTP client,
// falling back to http.DefaultClient when nil.
func NewScanner(client *http.Client) *Scanner {
	if client == nil {
		client = http.DefaultClient
	}

	return &Scanner{client: client}
}

// Scan queries the hosts in order for descriptors matching pluginID and
// returns a downloader for the overall greatest version, bound to
// targetBuild, or nil when no host yields a match.
//
// A fetch or parse failure on any host aborts the whole scan; partial
// results are never returned. Cancellation is polled between host queries,
// so a cancelled scan surfaces the context error rather than a result.
func (s *Scanner) Scan(ctx context.Context, scanHosts []string, pluginID, targetBuild string) (*domain.Downloader, error) {
	var best *domain.Downloader

	for _, host := range scanHosts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		feed, err := s.fetchFeed(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("scan host %s: %w", host, err)
		}

		candidate := bestMatch(feed, pluginID, host)
		if candidate == nil {
			logger.DebugKV(ctx, "Host has no matching descriptor", "host", host, "plugin", pluginID)
			continue
		}

		logger.InfoKV(ctx, "Host offers version",
			"host", host, "plugin", pluginID, "version", candidate.Version)

		if best == nil || version.Compare(candidate.Version, best.Descriptor.Version) > 0 {
			best = domain.NewDownloader(candidate, targetBuild)
		}
	}

	return best, nil
}

// fetchFeed downloads and parses one host's manifest.
func (s *Scanner) fetchFeed(ctx context.Context, host string) (*Feed, error) {
	feedURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	feedURL.Path = path.Join(feedURL.Path, FeedFilename)
	finalURL := feedURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	var feed Feed
	if err = yaml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return &feed, nil
}

// bestMatch picks the host's greatest matching version.
// On equal versions the last entry wins.
func bestMatch(feed *Feed, pluginID, host string) *domain.Descriptor {
	var best *domain.Descriptor

	for _, entry := range feed.Plugins {
		if entry.ID != pluginID {
			continue
		}

		if best != nil && version.Compare(entry.Version, best.Version) < 0 {
			continue
		}

		best = &domain.Descriptor{
			PluginID: entry.ID,
			Version:  entry.Version,
			Host:     host,
			FileURL:  entry.File,
			Checksum: entry.Checksum,
		}
	}

	return best
}
