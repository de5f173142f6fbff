package job

// Job represents internal job storage (not exposed in API)
type Job struct {
	JobID   string    `json:"job_id"`
	Type    Type      `json:"type"`
	Status  Status    `json:"status"`
	Results JobResult `json:"results,omitempty"`
}

type Type string

const (
	TypeSnapshot Type = "snapshot"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type JobResult struct {
	SnapshotResult *SnapshotResult `json:"snapshot_result,omitempty"`
}

// SnapshotResult is the stored outcome of one capture job. Exactly one of
// PublicURL/Path (captured bytes saved to storage) or ThumbnailURL (direct
// thumbnail endpoint, no bytes fetched) is populated on success.
type SnapshotResult struct {
	URL              string           `json:"url"`
	Path             string           `json:"path,omitempty"`
	PublicURL        string           `json:"public_url,omitempty"`
	ThumbnailURL     string           `json:"thumbnail_url,omitempty"`
	IsVideoThumbnail bool             `json:"is_video_thumbnail"`
	Metadata         SnapshotMetadata `json:"metadata"`
	Log              []string         `json:"log,omitempty"`
}

type SnapshotMetadata struct {
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Format   string `json:"format,omitempty"`
	FileSize int    `json:"file_size,omitempty"`
	LoadTime int    `json:"load_time,omitempty"`
}
