// Package job holds the background jobs run by the scheduler.
package job

import (
	"context"

	"github.com/quarind/docqa/internal/service"
)

// SnapshotJob periodically persists the vector index and manifest so a
// crash between request-driven persists loses at most one interval of work.
type SnapshotJob struct {
	svc *service.IndexService
}

func NewSnapshotJob(svc *service.IndexService) *SnapshotJob {
	return &SnapshotJob{svc: svc}
}

func (j *SnapshotJob) Name() string {
	return "index_snapshot"
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	return j.svc.Persist(ctx)
}
