package snapshot

import (
	"path/filepath"

	"pageshot/internal/core/job"
	tasks "pageshot/internal/platform/tasks"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
	tasks   *tasks.Client
	jobs    *job.JobService
}

func NewHandler(service *Service, tasks *tasks.Client, jobs *job.JobService) *Handler {
	return &Handler{service: service, tasks: tasks, jobs: jobs}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type jobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}

type statusResponse struct {
	Success          bool                  `json:"success"`
	JobID            string                `json:"job_id"`
	Status           string                `json:"status"`
	URL              string                `json:"url,omitempty"`
	Snapshot         string                `json:"snapshot,omitempty"`
	ThumbnailURL     string                `json:"thumbnail_url,omitempty"`
	IsVideoThumbnail bool                  `json:"is_video_thumbnail,omitempty"`
	Metadata         *job.SnapshotMetadata `json:"metadata,omitempty"`
	Log              []string              `json:"log,omitempty"`
}

func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "url is required"})
	}
	if err := ValidateTargetURL(req.URL); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	stream := false
	if req.Stream != nil {
		stream = *req.Stream
	}

	if stream {
		res, err := h.service.take(c.Context(), req)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
		}
		// A direct thumbnail URL has no bytes to stream
		if res.ThumbnailURL != "" {
			return c.JSON(statusResponse{
				Success:          true,
				Status:           "completed",
				URL:              req.URL,
				ThumbnailURL:     res.ThumbnailURL,
				IsVideoThumbnail: true,
				Log:              res.Log,
			})
		}
		if res.Format == "jpeg" {
			c.Set("Content-Type", "image/jpeg")
		} else {
			c.Set("Content-Type", "image/png")
		}
		return c.Send(res.Bytes)
	}

	id, err := h.service.Enqueue(c.Context(), h.tasks, req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.JSON(jobResponse{Success: true, JobID: id})
}

func (h *Handler) HandleGet(c *fiber.Ctx) error {
	jobID := c.Query("job_id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "job_id is required"})
	}

	j, err := h.jobs.GetJobStatus(c.Context(), jobID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not_found"})
	}

	if j.Status != job.StatusCompleted || j.Results.SnapshotResult == nil {
		return c.Status(statusCode(j.Status)).JSON(statusResponse{
			Success: j.Status != job.StatusFailed,
			JobID:   j.JobID,
			Status:  string(j.Status),
		})
	}

	res := j.Results.SnapshotResult
	public := res.PublicURL
	if public == "" && res.Path != "" {
		public = "/files/snapshots/" + filepath.Base(res.Path)
	}
	meta := res.Metadata
	return c.JSON(statusResponse{
		Success:          true,
		JobID:            j.JobID,
		Status:           string(job.StatusCompleted),
		URL:              res.URL,
		Snapshot:         public,
		ThumbnailURL:     res.ThumbnailURL,
		IsVideoThumbnail: res.IsVideoThumbnail,
		Metadata:         &meta,
		Log:              res.Log,
	})
}

func statusCode(s job.Status) int {
	switch s {
	case job.StatusFailed:
		return fiber.StatusOK
	default:
		return fiber.StatusAccepted
	}
}
