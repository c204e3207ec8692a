package services

import (
  "context"
  "fmt"
  "os"
  "os/exec"
  "path/filepath"
  "strconv"
  "time"

  "github.com/google/uuid"
  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/utils"
)

// MediaService normalizes browser-recorded audio into mono 16kHz PCM/WAV via
// the ffmpeg binary. Scratch files use per-request uuid names under workRoot
// and are removed on every exit path.
type MediaService interface {
  AssertReady(ctx context.Context) error
  ConvertToWAV(ctx context.Context, raw []byte) ([]byte, error)
}

type mediaService struct {
  log *logger.Logger

  ffmpegPath string
  workRoot   string

  sampleRateHz int
  channels     int
  timeout      time.Duration
}

func NewMediaService(log *logger.Logger) MediaService {
  serviceLog := log.With("service", "MediaService")
  return &mediaService{
    log:          serviceLog,
    ffmpegPath:   utils.GetEnv("FFMPEG_PATH", "ffmpeg", log),
    workRoot:     utils.GetEnv("MEDIA_WORK_ROOT", "/tmp/mentis-media", log),
    sampleRateHz: 16000,
    channels:     1,
    timeout:      2 * time.Minute,
  }
}

func (m *mediaService) AssertReady(ctx context.Context) error {
  if _, err := exec.LookPath(m.ffmpegPath); err != nil {
    return fmt.Errorf("missing required binary %q in PATH: %w", m.ffmpegPath, err)
  }
  if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
    return fmt.Errorf("create workRoot: %w", err)
  }
  return nil
}

func (m *mediaService) ConvertToWAV(ctx context.Context, raw []byte) ([]byte, error) {
  if len(raw) == 0 {
    return nil, fmt.Errorf("no audio bytes given")
  }
  if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
    return nil, fmt.Errorf("mkdir workRoot: %w", err)
  }

  base := uuid.New().String()
  inputPath := filepath.Join(m.workRoot, base+".webm")
  outputPath := filepath.Join(m.workRoot, base+".wav")
  defer func() {
    _ = os.Remove(inputPath)
    _ = os.Remove(outputPath)
  }()

  if err := os.WriteFile(inputPath, raw, 0o644); err != nil {
    return nil, fmt.Errorf("write scratch input: %w", err)
  }

  ctx, cancel := context.WithTimeout(ctx, m.timeout)
  defer cancel()

  // ffmpeg -y -i in.webm -vn -ac 1 -ar 16000 -f wav out.wav
  cmd := exec.CommandContext(ctx, m.ffmpegPath,
    "-y",
    "-i", inputPath,
    "-vn",
    "-ac", strconv.Itoa(m.channels),
    "-ar", strconv.Itoa(m.sampleRateHz),
    "-f", "wav",
    outputPath,
  )
  out, err := cmd.CombinedOutput()
  if err != nil {
    return nil, fmt.Errorf("ffmpeg convert failed: %w; out=%s", err, string(out))
  }

  wav, err := os.ReadFile(outputPath)
  if err != nil {
    return nil, fmt.Errorf("read scratch output: %w", err)
  }
  if len(wav) == 0 {
    return nil, fmt.Errorf("ffmpeg produced empty output at %s", outputPath)
  }

  m.log.Debug("Audio converted to WAV", "input_bytes", len(raw), "output_bytes", len(wav))
  return wav, nil
}
