package plugins

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
)

// newTestTracker wires a tracker against a temp install dir and pending file.
func newTestTracker(t *testing.T) *FileTracker {
	t.Helper()

	dir := t.TempDir()

	return NewFileTracker(filepath.Join(dir, "pending.yaml"), dir, nil)
}

// checksumOf returns the base64 SHA-512 checksum the feed would advertise.
func checksumOf(data []byte) string {
	sum := sha512.Sum512(data)

	return base64.StdEncoding.EncodeToString(sum[:])
}

// TestFileTracker_PendingLifecycle ensures register and clear round-trip through the file.
func TestFileTracker_PendingLifecycle(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t)
	ctx := context.Background()

	descriptor := &domain.Descriptor{
		PluginID: "com.example.navigator",
		Version:  "2.0.0-eap",
		Host:     "https://eap.example.com/feed",
	}

	require.NoError(t, tracker.OnDescriptorDownload(ctx, descriptor))
	// Registering the same descriptor twice keeps one entry.
	require.NoError(t, tracker.OnDescriptorDownload(ctx, descriptor))

	pending, err := tracker.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"com.example.navigator"}, pending)

	require.NoError(t, tracker.ClearPending(ctx, descriptor))
	// Clearing an absent entry is a no-op.
	require.NoError(t, tracker.ClearPending(ctx, descriptor))

	pending, err = tracker.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

// TestFileTracker_PrepareAndInstall downloads, verifies and applies an artifact.
func TestFileTracker_PrepareAndInstall(t *testing.T) {
	t.Parallel()

	artifact := []byte("new plugin build")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(artifact)
	}))
	defer server.Close()

	tracker := newTestTracker(t)
	ctx := context.Background()

	downloader := &domain.Downloader{
		Descriptor: &domain.Descriptor{
			PluginID: "com.example.navigator",
			Version:  "2.0.0-eap",
			FileURL:  server.URL + "/navigator.zip",
			Checksum: checksumOf(artifact),
		},
		TargetBuild: "243.1",
	}

	prepared, err := tracker.CheckAndPrepareToInstall(ctx, downloader)
	require.NoError(t, err)
	require.True(t, prepared)

	installed, err := tracker.InstallPluginUpdates(ctx, downloader)
	require.NoError(t, err)
	require.True(t, installed)

	applied, err := os.ReadFile(filepath.Join(tracker.installDir, "navigator.zip"))
	require.NoError(t, err)
	require.Equal(t, artifact, applied)
}

// TestFileTracker_DeclinesWithoutArtifact verifies a missing file URL is a silent decline.
func TestFileTracker_DeclinesWithoutArtifact(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t)

	downloader := &domain.Downloader{
		Descriptor: &domain.Descriptor{
			PluginID: "com.example.navigator",
			Version:  "2.0.0-eap",
		},
	}

	prepared, err := tracker.CheckAndPrepareToInstall(context.Background(), downloader)
	require.NoError(t, err)
	require.False(t, prepared)
}

// TestFileTracker_ChecksumMismatchFailsApply ensures a corrupted download never lands.
func TestFileTracker_ChecksumMismatchFailsApply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tampered artifact"))
	}))
	defer server.Close()

	tracker := newTestTracker(t)
	ctx := context.Background()

	downloader := &domain.Downloader{
		Descriptor: &domain.Descriptor{
			PluginID: "com.example.navigator",
			Version:  "2.0.0-eap",
			FileURL:  server.URL + "/navigator.zip",
			Checksum: checksumOf([]byte("expected artifact")),
		},
	}

	prepared, err := tracker.CheckAndPrepareToInstall(ctx, downloader)
	require.NoError(t, err)
	require.True(t, prepared)

	installed, err := tracker.InstallPluginUpdates(ctx, downloader)
	require.Error(t, err)
	require.False(t, installed)
}

// TestFileTracker_InstallWithoutPrepare rejects applying an unstaged artifact.
func TestFileTracker_InstallWithoutPrepare(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t)

	downloader := &domain.Downloader{
		Descriptor: &domain.Descriptor{
			PluginID: "com.example.navigator",
			Checksum: checksumOf([]byte("anything")),
		},
	}

	installed, err := tracker.InstallPluginUpdates(context.Background(), downloader)
	require.ErrorIs(t, err, errNotPrepared)
	require.False(t, installed)
}
