package plugins

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/eap-updater/internal/config"
	domain "github.com/oshokin/eap-updater/internal/domain/update"
	"github.com/oshokin/eap-updater/internal/logger"

	// Ensure SHA512 is available for checksum verification.
	_ "crypto/sha512"
)

// Tracker is the plugin-state boundary of the host environment.
// The pending entry registered by OnDescriptorDownload lives exactly as long
// as one install cycle; ClearPending must be called on every exit path.
type Tracker interface {
	OnDescriptorDownload(ctx context.Context, descriptor *domain.Descriptor) error
	CheckAndPrepareToInstall(ctx context.Context, downloader *domain.Downloader) (bool, error)
	InstallPluginUpdates(ctx context.Context, downloader *domain.Downloader) (bool, error)
	ClearPending(ctx context.Context, descriptor *domain.Descriptor) error
}

const (
	// DefaultChecksumFunction is used to verify downloaded artifacts.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// DefaultFileMode is used when applying plugin artifacts.
	DefaultFileMode os.FileMode = 0o755
)

var (
	errNotPrepared  = errors.New("artifact is not prepared")
	errNoChecksum   = errors.New("checksum missing for artifact")
	errBadHTTPState = errors.New("unexpected http status")
)

// FileTracker is a file-backed Tracker: pending entries are persisted to a
// YAML file and artifacts are staged in a temporary directory before apply.
type FileTracker struct {
	// pendingPath is the YAML file tracking pending install entries.
	pendingPath string
	// installDir is where applied artifacts land.
	installDir string
	// client performs artifact downloads.
	client *http.Client
	// staged maps plugin id to the local temp path of a prepared artifact.
	staged map[string]string
	// tempDir holds staged artifacts for the current cycle.
	tempDir string
	// mu protects pending file access and the staged map.
	mu sync.Mutex
}

// pendingFile is the on-disk YAML shape of the pending install list.
type pendingFile struct {
	Pending []pendingEntry `yaml:"pending"`
}

// pendingEntry records one descriptor awaiting installation.
type pendingEntry struct {
	PluginID string `yaml:"id"`
	Version  string `yaml:"version"`
	Host     string `yaml:"host"`
}

// NewFileTracker creates a tracker persisting pending entries at pendingPath
// and applying artifacts under installDir.
func NewFileTracker(pendingPath, installDir string, client *http.Client) *FileTracker {
	if client == nil {
		client = http.DefaultClient
	}

	return &FileTracker{
		pendingPath: filepath.Clean(pendingPath),
		installDir:  filepath.Clean(installDir),
		client:      client,
		staged:      make(map[string]string),
	}
}

// OnDescriptorDownload registers the descriptor as pending install.
func (t *FileTracker) OnDescriptorDownload(ctx context.Context, descriptor *domain.Descriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.loadPending()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.PluginID == descriptor.PluginID {
			return nil
		}
	}

	entries = append(entries, pendingEntry{
		PluginID: descriptor.PluginID,
		Version:  descriptor.Version,
		Host:     descriptor.Host,
	})

	logger.InfoKV(ctx, "Registered pending install",
		"plugin", descriptor.PluginID, "version", descriptor.Version)

	return t.storePending(entries)
}

// CheckAndPrepareToInstall downloads the artifact into a staging directory.
// It returns false without error when the host advertises no artifact for
// the descriptor, which the caller treats as a silent decline.
func (t *FileTracker) CheckAndPrepareToInstall(ctx context.Context, downloader *domain.Downloader) (bool, error) {
	descriptor := downloader.Descriptor
	if descriptor.FileURL == "" {
		logger.InfoKV(ctx, "Host advertises no artifact, declining install",
			"plugin", descriptor.PluginID)

		return false, nil
	}

	if descriptor.Checksum == "" {
		return false, fmt.Errorf("checksum for %s: %w", descriptor.PluginID, errNoChecksum)
	}

	if _, err := base64.StdEncoding.DecodeString(descriptor.Checksum); err != nil {
		return false, fmt.Errorf("decode checksum for %s: %w", descriptor.PluginID, err)
	}

	stagedPath, err := t.downloadArtifact(ctx, descriptor)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	t.staged[descriptor.PluginID] = stagedPath
	t.mu.Unlock()

	logger.InfoKV(ctx, "Artifact staged", "plugin", descriptor.PluginID, "path", stagedPath)

	return true, nil
}

// InstallPluginUpdates applies the staged artifact atomically.
// It returns false when nothing was staged for the descriptor.
func (t *FileTracker) InstallPluginUpdates(ctx context.Context, downloader *domain.Downloader) (bool, error) {
	descriptor := downloader.Descriptor

	t.mu.Lock()
	stagedPath, ok := t.staged[descriptor.PluginID]
	t.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("%s: %w", descriptor.PluginID, errNotPrepared)
	}

	data, err := os.ReadFile(stagedPath)
	if err != nil {
		return false, err
	}

	checksum, err := base64.StdEncoding.DecodeString(descriptor.Checksum)
	if err != nil {
		return false, err
	}

	targetPath := filepath.Join(t.installDir, artifactName(descriptor))
	if _, err = os.Stat(targetPath); err != nil && os.IsNotExist(err) {
		if _, err = os.Create(targetPath); err != nil {
			return false, err
		}
	}

	logger.InfoKV(ctx, "Applying plugin update", "plugin", descriptor.PluginID, "target", targetPath)

	options := goupdate.Options{
		TargetPath: targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return false, fmt.Errorf("apply update: %w", err)
	}

	oldPath := targetPath + ".old"
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return true, nil
}

// ClearPending drops the descriptor's pending entry and staged artifact.
func (t *FileTracker) ClearPending(ctx context.Context, descriptor *domain.Descriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.staged, descriptor.PluginID)

	if t.tempDir != "" && len(t.staged) == 0 {
		_ = os.RemoveAll(t.tempDir)
		t.tempDir = ""
	}

	entries, err := t.loadPending()
	if err != nil {
		return err
	}

	remaining := entries[:0]
	for _, e := range entries {
		if e.PluginID != descriptor.PluginID {
			remaining = append(remaining, e)
		}
	}

	if len(remaining) == len(entries) {
		return nil
	}

	logger.InfoKV(ctx, "Cleared pending install", "plugin", descriptor.PluginID)

	return t.storePending(remaining)
}

// Pending returns the plugin ids currently registered as pending install.
func (t *FileTracker) Pending(_ context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.loadPending()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PluginID)
	}

	return ids, nil
}

// downloadArtifact fetches the descriptor's artifact into the staging directory.
func (t *FileTracker) downloadArtifact(ctx context.Context, descriptor *domain.Descriptor) (string, error) {
	t.mu.Lock()
	if t.tempDir == "" {
		tempDir, err := os.MkdirTemp("", "eap-updater-")
		if err != nil {
			t.mu.Unlock()
			return "", err
		}

		t.tempDir = tempDir
	}

	tempDir := t.tempDir
	t.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptor.FileURL, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := t.client.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", descriptor.FileURL, response.Status, errBadHTTPState)
	}

	stagedPath := filepath.Join(tempDir, artifactName(descriptor))

	outputFile, err := os.Create(stagedPath)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()

		return "", err
	}

	if err = outputFile.Close(); err != nil {
		return "", err
	}

	return stagedPath, nil
}

// loadPending reads pending entries from disk. Callers must hold the lock.
func (t *FileTracker) loadPending() ([]pendingEntry, error) {
	contents, err := os.ReadFile(t.pendingPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read pending file: %w", err)
	}

	var file pendingFile
	if err = yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("decode pending file: %w", err)
	}

	return file.Pending, nil
}

// storePending writes pending entries to disk. Callers must hold the lock.
func (t *FileTracker) storePending(entries []pendingEntry) error {
	data, err := yaml.Marshal(&pendingFile{Pending: entries})
	if err != nil {
		return fmt.Errorf("encode pending file: %w", err)
	}

	if err = os.WriteFile(t.pendingPath, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}

	return nil
}

// artifactName derives the local file name for a descriptor's artifact.
func artifactName(descriptor *domain.Descriptor) string {
	if descriptor.FileURL != "" {
		if u, err := url.Parse(descriptor.FileURL); err == nil {
			if name := path.Base(u.Path); name != "." && name != "/" {
				return name
			}
		}
	}

	return descriptor.PluginID + ".zip"
}
