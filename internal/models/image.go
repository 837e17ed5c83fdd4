package models

// ImageRecord is the explicit shape of a raw image row coming from the asset
// database. Every URL field is optional except none being set, which the
// resolver treats as an unresolvable item.
type ImageRecord struct {
	SourceID     string `json:"source_id"`
	Title        string `json:"title"`
	FolderName   string `json:"folder_name"`
	SourceURL    string `json:"source_url"`
	DownloadURL  string `json:"download_url"`
	HDURL        string `json:"hd_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// ArchiveItem is the ephemeral resolver output consumed by the fetcher.
// It is never persisted on its own.
type ArchiveItem struct {
	SourceURL   string
	DisplayName string
	SourceID    string
}
