package services

import (
  "context"
  "os"
  "path/filepath"
  "testing"
  "time"
)

// stubFFmpeg writes a shell script that mimics ffmpeg's argument order: the
// input follows -i and the output is the last argument.
func stubFFmpeg(t *testing.T, script string) string {
  t.Helper()
  dir := t.TempDir()
  path := filepath.Join(dir, "ffmpeg")
  if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
    t.Fatalf("write stub: %v", err)
  }
  return path
}

func newMediaService(t *testing.T, ffmpegPath string) *mediaService {
  t.Helper()
  return &mediaService{
    log:          testLogger(t),
    ffmpegPath:   ffmpegPath,
    workRoot:     t.TempDir(),
    sampleRateHz: 16000,
    channels:     1,
    timeout:      10 * time.Second,
  }
}

func TestConvertToWAV(t *testing.T) {
  script := `
in=""
while [ $# -gt 1 ]; do
  if [ "$1" = "-i" ]; then shift; in="$1"; fi
  shift
done
cp "$in" "$1"
`
  svc := newMediaService(t, stubFFmpeg(t, script))

  wav, err := svc.ConvertToWAV(context.Background(), []byte("webm-payload"))
  if err != nil {
    t.Fatalf("ConvertToWAV: %v", err)
  }
  if string(wav) != "webm-payload" {
    t.Fatalf("wav = %q", wav)
  }

  entries, err := os.ReadDir(svc.workRoot)
  if err != nil {
    t.Fatalf("ReadDir: %v", err)
  }
  if len(entries) != 0 {
    t.Fatalf("scratch files left behind: %v", entries)
  }
}

func TestConvertToWAVFailureCleansScratch(t *testing.T) {
  svc := newMediaService(t, stubFFmpeg(t, `echo "decode error" >&2; exit 1`))

  if _, err := svc.ConvertToWAV(context.Background(), []byte("broken")); err == nil {
    t.Fatalf("expected conversion failure")
  }
  entries, err := os.ReadDir(svc.workRoot)
  if err != nil {
    t.Fatalf("ReadDir: %v", err)
  }
  if len(entries) != 0 {
    t.Fatalf("scratch files left behind after failure: %v", entries)
  }
}

func TestConvertToWAVEmptyInput(t *testing.T) {
  svc := newMediaService(t, "ffmpeg")
  if _, err := svc.ConvertToWAV(context.Background(), nil); err == nil {
    t.Fatalf("expected error for empty input")
  }
}

func TestAssertReadyMissingBinary(t *testing.T) {
  svc := newMediaService(t, "definitely-not-a-binary-on-path")
  if err := svc.AssertReady(context.Background()); err == nil {
    t.Fatalf("expected missing-binary error")
  }
}
