package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup rebuilds a project's cached reports after its
	// version list changed.
	TaskReportWarmup = "report:warmup"
	// TaskApprovalRemind sweeps for stale pending approvals.
	TaskApprovalRemind = "approvals:remind"
)

// ReportWarmupPayload identifies the project whose reports need rebuilding.
type ReportWarmupPayload struct {
	ProjectID string `json:"project_id"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// NewApprovalRemindTask constructs the reminder sweep task.
func NewApprovalRemindTask() *asynq.Task {
	return asynq.NewTask(TaskApprovalRemind, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReportWarmup enqueues a report warmup task for the project.
func (c *Client) EnqueueReportWarmup(ctx context.Context, projectID string) error {
	task, err := NewReportWarmupTask(ReportWarmupPayload{ProjectID: projectID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
