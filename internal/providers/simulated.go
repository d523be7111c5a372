package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"reelsmith/internal/packaging"
	"reelsmith/internal/services"
)

// Fault forces a deterministic outcome for a slug in simulated providers.
type Fault int

const (
	FaultNone Fault = iota
	FaultFail
	FaultTimeout
)

// SimulatedRenderer produces deterministic render results without touching
// the network. Completed jobs write a zero-byte placeholder video so
// downstream packaging and export see a real path.
type SimulatedRenderer struct {
	mu     sync.Mutex
	jobs   map[string]RenderJob
	faults map[string]Fault
}

// NewSimulatedRenderer constructs the offline renderer.
func NewSimulatedRenderer() *SimulatedRenderer {
	return &SimulatedRenderer{
		jobs:   make(map[string]RenderJob),
		faults: make(map[string]Fault),
	}
}

// ForceFault pins the outcome for a slug. Used by tests to exercise failure
// and timeout paths deterministically.
func (r *SimulatedRenderer) ForceFault(slug string, fault Fault) {
	r.mu.Lock()
	r.faults[slug] = fault
	r.mu.Unlock()
}

// RenderAvatar completes synchronously with a deterministic id derived from
// the item identity, so reruns yield identical artifacts.
func (r *SimulatedRenderer) RenderAvatar(_ context.Context, req RenderRequest) (RenderJob, error) {
	id := "sim-video-" + packaging.Seed(req.ItemSlug, req.ScriptText)

	r.mu.Lock()
	fault := r.faults[req.ItemSlug]
	r.mu.Unlock()

	switch fault {
	case FaultFail:
		job := RenderJob{ProviderRequestID: id, Status: StatusFailed, Detail: "simulated render failure"}
		r.store(id, job)
		return job, services.Wrap(services.ErrProviderFatal, "render", "simulated render", "simulated render failure", nil)
	case FaultTimeout:
		// Stays pending forever so AwaitRender exhausts its budget.
		job := RenderJob{ProviderRequestID: id, Status: StatusPending}
		r.store(id, job)
		return job, nil
	}

	videoPath := filepath.Join(req.OutputDir, req.ItemSlug+".mp4")
	if err := writePlaceholder(videoPath); err != nil {
		return RenderJob{}, services.Wrap(services.ErrConfiguration, "render", "simulated render", "write placeholder video", err)
	}
	job := RenderJob{ProviderRequestID: id, Status: StatusComplete, ResultURI: videoPath}
	r.store(id, job)
	return job, nil
}

// PollStatus returns the stored job state. Unknown ids fail hard since that
// indicates a bookkeeping bug rather than provider flakiness.
func (r *SimulatedRenderer) PollStatus(_ context.Context, providerRequestID string) (RenderJob, error) {
	r.mu.Lock()
	job, ok := r.jobs[providerRequestID]
	r.mu.Unlock()
	if !ok {
		return RenderJob{}, services.Wrap(services.ErrProviderFatal, "render", "simulated poll",
			fmt.Sprintf("unknown render job %q", providerRequestID), nil)
	}
	return job, nil
}

func (r *SimulatedRenderer) store(id string, job RenderJob) {
	r.mu.Lock()
	r.jobs[id] = job
	r.mu.Unlock()
}

// SimulatedUploader confirms uploads deterministically without any network.
type SimulatedUploader struct {
	mu     sync.Mutex
	faults map[string]Fault
}

// NewSimulatedUploader constructs the offline uploader.
func NewSimulatedUploader() *SimulatedUploader {
	return &SimulatedUploader{faults: make(map[string]Fault)}
}

// ForceFault pins the outcome for a slug.
func (u *SimulatedUploader) ForceFault(slug string, fault Fault) {
	u.mu.Lock()
	u.faults[slug] = fault
	u.mu.Unlock()
}

// UploadVideo returns a deterministic upload id derived from the item
// identity. The video file must exist, mirroring the live uploader's check.
func (u *SimulatedUploader) UploadVideo(_ context.Context, req UploadRequest) (UploadResult, error) {
	u.mu.Lock()
	fault := u.faults[req.ItemSlug]
	u.mu.Unlock()
	if fault == FaultFail {
		return UploadResult{}, services.Wrap(services.ErrProviderFatal, "upload", "simulated upload", "simulated upload failure", nil)
	}
	if req.VideoPath == "" {
		return UploadResult{}, services.Wrap(services.ErrConfiguration, "upload", "simulated upload", "no video to upload", nil)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return UploadResult{}, services.Wrap(services.ErrConfiguration, "upload", "simulated upload", "video file missing", err)
	}
	id := "sim-upload-" + packaging.Seed(req.ItemSlug, req.VideoPath)
	return UploadResult{UploadID: id, ShareURL: "https://example.invalid/sim/" + id}, nil
}

func writePlaceholder(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, nil, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
