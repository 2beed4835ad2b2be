package update

// Descriptor is version metadata for one plugin as advertised by one host.
// Descriptors are transient: produced fresh on each scan, never cached
// across scans.
type Descriptor struct {
	// PluginID is the stable identity of the advertised plugin.
	PluginID string
	// Version is the advertised version string.
	Version string
	// Host is the repository host the descriptor came from.
	Host string
	// FileURL is the location of the plugin artifact.
	FileURL string
	// Checksum is the base64-encoded SHA-512 checksum of the artifact.
	Checksum string
}

// Clone returns a copy of the descriptor to avoid leaking internal references.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}

	cloned := *d

	return &cloned
}

// Downloader is a prepared update handle binding one descriptor to a target
// platform build. It is created only after a descriptor is selected and is
// consumed exactly once by the install task.
type Downloader struct {
	// Descriptor is the selected plugin descriptor.
	Descriptor *Descriptor
	// TargetBuild is the host build the artifact must be compatible with.
	TargetBuild string
}

// NewDownloader binds the descriptor to the provided target build.
func NewDownloader(d *Descriptor, targetBuild string) *Downloader {
	return &Downloader{
		Descriptor:  d.Clone(),
		TargetBuild: targetBuild,
	}
}
