package providers_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/providers"
	"reelsmith/internal/services"
)

func TestSimulatedRendererCompletes(t *testing.T) {
	renderer := providers.NewSimulatedRenderer()
	dir := t.TempDir()

	job, err := renderer.RenderAvatar(context.Background(), providers.RenderRequest{
		ItemSlug:   "ava_smith__recap__week4",
		ScriptText: "script body",
		OutputDir:  dir,
	})
	if err != nil {
		t.Fatalf("RenderAvatar: %v", err)
	}
	if job.Status != providers.StatusComplete {
		t.Fatalf("status = %s, want complete", job.Status)
	}
	if !strings.HasPrefix(job.ProviderRequestID, "sim-video-") {
		t.Fatalf("unexpected id: %s", job.ProviderRequestID)
	}
	info, err := os.Stat(job.ResultURI)
	if err != nil {
		t.Fatalf("placeholder video missing: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("placeholder should be zero bytes, got %d", info.Size())
	}

	// Same identity, same id.
	again, err := renderer.RenderAvatar(context.Background(), providers.RenderRequest{
		ItemSlug:   "ava_smith__recap__week4",
		ScriptText: "script body",
		OutputDir:  dir,
	})
	if err != nil {
		t.Fatalf("second RenderAvatar: %v", err)
	}
	if again.ProviderRequestID != job.ProviderRequestID {
		t.Fatal("simulated render id must be deterministic")
	}
}

func TestSimulatedRendererForcedFailure(t *testing.T) {
	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault("bad__recap__week1", providers.FaultFail)

	_, err := renderer.RenderAvatar(context.Background(), providers.RenderRequest{
		ItemSlug:  "bad__recap__week1",
		OutputDir: t.TempDir(),
	})
	if !errors.Is(err, services.ErrProviderFatal) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestAwaitRenderTimesOut(t *testing.T) {
	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault("slow__recap__week1", providers.FaultTimeout)

	job, err := renderer.RenderAvatar(context.Background(), providers.RenderRequest{
		ItemSlug:  "slow__recap__week1",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("RenderAvatar: %v", err)
	}

	clock := newFakeClock()
	job, err = providers.AwaitRender(context.Background(), renderer, job,
		providers.PollConfig{Interval: time.Second, MaxAttempts: 4}, clock)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if job.Status != providers.StatusTimedOut {
		t.Fatalf("status = %s, want timed_out", job.Status)
	}
	if clock.sleepCount() != 4 {
		t.Fatalf("expected 4 poll sleeps, got %d", clock.sleepCount())
	}
}

func TestAwaitRenderSkipsTerminalJob(t *testing.T) {
	clock := newFakeClock()
	job := providers.RenderJob{ProviderRequestID: "x", Status: providers.StatusComplete}
	got, err := providers.AwaitRender(context.Background(), nil, job,
		providers.PollConfig{Interval: time.Second, MaxAttempts: 2}, clock)
	if err != nil {
		t.Fatalf("AwaitRender: %v", err)
	}
	if got.Status != providers.StatusComplete || clock.sleepCount() != 0 {
		t.Fatal("terminal job must return without polling")
	}
}

func TestSimulatedUploader(t *testing.T) {
	uploader := providers.NewSimulatedUploader()
	video := t.TempDir() + "/clip.mp4"
	if err := os.WriteFile(video, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := uploader.UploadVideo(context.Background(), providers.UploadRequest{
		ItemSlug:  "ava_smith__recap__week4",
		VideoPath: video,
	})
	if err != nil {
		t.Fatalf("UploadVideo: %v", err)
	}
	if !strings.HasPrefix(result.UploadID, "sim-upload-") {
		t.Fatalf("unexpected upload id: %s", result.UploadID)
	}

	again, err := uploader.UploadVideo(context.Background(), providers.UploadRequest{
		ItemSlug:  "ava_smith__recap__week4",
		VideoPath: video,
	})
	if err != nil {
		t.Fatalf("second UploadVideo: %v", err)
	}
	if again.UploadID != result.UploadID {
		t.Fatal("simulated upload id must be deterministic")
	}
}

func TestSimulatedUploaderMissingVideo(t *testing.T) {
	uploader := providers.NewSimulatedUploader()
	_, err := uploader.UploadVideo(context.Background(), providers.UploadRequest{
		ItemSlug:  "x__recap__week1",
		VideoPath: "/nonexistent/clip.mp4",
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
