package services

import (
  "context"
  "encoding/json"
  "fmt"
  "net/http"
  "strings"
  "time"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/types"
  "github.com/mentislabs/mentis-backend/internal/utils"
)

// VoiceFeatureService extracts the acoustic feature vector from canonical WAV
// audio. The vector is opaque to the backend and stored verbatim.
type VoiceFeatureService interface {
  Analyze(ctx context.Context, wav []byte) (*types.VoiceMetrics, error)
}

type voiceFeatureService struct {
  log        *logger.Logger
  baseURL    string
  httpClient *http.Client
}

func NewVoiceFeatureService(log *logger.Logger) VoiceFeatureService {
  serviceLog := log.With("service", "VoiceFeatureService")
  baseURL := strings.TrimRight(utils.GetEnv("VOICE_API_BASE_URL", "http://localhost:7001", log), "/")
  timeoutSec := utils.GetEnvAsInt("VOICE_API_TIMEOUT_SECONDS", 90, log)
  return &voiceFeatureService{
    log:        serviceLog,
    baseURL:    baseURL,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }
}

type voiceAnalysisResponse struct {
  Message     string             `json:"message"`
  Filename    string             `json:"filename"`
  ContentType string             `json:"content_type"`
  Analysis    types.VoiceMetrics `json:"analysis"`
}

func (v *voiceFeatureService) Analyze(ctx context.Context, wav []byte) (*types.VoiceMetrics, error) {
  if len(wav) == 0 {
    return nil, fmt.Errorf("no audio bytes given")
  }

  raw, err := postWAVMultipart(ctx, v.httpClient, v.baseURL+"/voice/analyze", wav)
  if err != nil {
    return nil, fmt.Errorf("voice analyze call: %w", err)
  }

  var resp voiceAnalysisResponse
  if err := json.Unmarshal(raw, &resp); err != nil {
    return nil, fmt.Errorf("voice analyze decode: %w; raw=%s", err, truncateForLog(raw))
  }

  v.log.Debug("Voice metrics extracted",
    "duration_seconds", resp.Analysis.DurationSeconds,
    "pitch_mean", resp.Analysis.PitchMean,
  )
  return &resp.Analysis, nil
}
