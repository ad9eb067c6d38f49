package models

// Artifact is one screenshot file retrieved into the staging directory.
// Artifacts are read-only once the retriever has finished.
type Artifact struct {
	Name   string // Path relative to the staging directory, slash-separated
	Path   string // Path on disk
	Size   int64  // Size in bytes
	Format string // Decoded image format (png, jpeg, ...), empty until decoded
	Width  int    // Decoded width in pixels
	Height int    // Decoded height in pixels
}
