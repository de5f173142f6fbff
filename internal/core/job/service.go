package job

import (
	"context"
	"fmt"

	rds "pageshot/internal/platform/redis"
)

type JobService struct{ redis *rds.Service }

func NewJobService(redis *rds.Service) *JobService { return &JobService{redis: redis} }

func (s *JobService) GetJobStatus(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := s.redis.CacheGet(ctx, key(jobID), &job); err != nil {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return &job, nil
}

func (s *JobService) store(ctx context.Context, jobID string, status Status, result *SnapshotResult) error {
	var job Job
	_ = s.redis.CacheGet(ctx, key(jobID), &job)
	job.JobID = jobID
	job.Type = TypeSnapshot
	job.Status = status
	if result != nil {
		job.Results = JobResult{SnapshotResult: result}
	}
	if err := s.redis.CacheSet(ctx, key(jobID), job, ttl(status)); err != nil {
		return err
	}
	// Publish an update event for status pollers
	_ = s.redis.Client().Publish(ctx, key(jobID), "updated").Err()
	return nil
}

func (s *JobService) InitPending(ctx context.Context, jobID string, url string) error {
	return s.store(ctx, jobID, StatusPending, &SnapshotResult{URL: url})
}

func (s *JobService) SetProcessing(ctx context.Context, jobID string) error {
	return s.store(ctx, jobID, StatusProcessing, nil)
}

func (s *JobService) Complete(ctx context.Context, jobID string, status Status, result *SnapshotResult) error {
	return s.store(ctx, jobID, status, result)
}

func key(jobID string) string { return "job:" + jobID }

// Completed jobs stay readable for a day; in-flight records expire sooner so
// crashed workers do not leave permanent "processing" entries.
func ttl(status Status) int {
	switch status {
	case StatusCompleted, StatusFailed:
		return 86400
	default:
		return 3600
	}
}
