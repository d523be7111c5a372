package providers

import (
	"context"
	"time"

	"reelsmith/internal/services"
)

// JobStatus tracks the lifecycle of an asynchronous render job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
	StatusTimedOut   JobStatus = "timed_out"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}

// RenderRequest describes one avatar render submission.
type RenderRequest struct {
	ItemSlug   string
	ScriptText string
	Caption    string
	OutputDir  string
}

// RenderJob is the provider-side state of a render submission.
type RenderJob struct {
	ProviderRequestID string
	Status            JobStatus
	ResultURI         string
	Detail            string
}

// UploadRequest describes one video upload.
type UploadRequest struct {
	ItemSlug  string
	VideoPath string
	Caption   string
	Tags      []string
}

// UploadResult is the provider-side confirmation of an upload.
type UploadResult struct {
	UploadID string
	ShareURL string
}

// AvatarRenderer submits scripts for avatar video rendering and reports job
// progress. Implementations must be safe for concurrent use.
type AvatarRenderer interface {
	RenderAvatar(ctx context.Context, req RenderRequest) (RenderJob, error)
	PollStatus(ctx context.Context, providerRequestID string) (RenderJob, error)
}

// Uploader publishes a rendered video. Implementations must be safe for
// concurrent use.
type Uploader interface {
	UploadVideo(ctx context.Context, req UploadRequest) (UploadResult, error)
}

// PollConfig bounds the render status polling loop.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// AwaitRender polls the renderer until the job reaches a terminal status or
// the attempt budget is exhausted. Exhaustion yields a timed_out job and an
// ErrTimeout so the item records a distinct outcome from a hard failure.
func AwaitRender(ctx context.Context, renderer AvatarRenderer, job RenderJob, poll PollConfig, clock Clock) (RenderJob, error) {
	if job.Status.Terminal() {
		return job, nil
	}
	attempts := poll.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := clock.Sleep(ctx, poll.Interval); err != nil {
			return job, services.Wrap(services.ErrTransient, "render", "await render", "canceled while polling", err)
		}
		polled, err := renderer.PollStatus(ctx, job.ProviderRequestID)
		if err != nil {
			return job, err
		}
		job = polled
		if job.Status.Terminal() {
			return job, nil
		}
	}
	job.Status = StatusTimedOut
	return job, services.Wrap(services.ErrTimeout, "render", "await render",
		"render job did not complete within the poll budget", nil)
}
