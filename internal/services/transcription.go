package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "strings"
  "time"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/utils"
)

// TranscriptionService turns canonical WAV audio into plain text through the
// voice service. An empty transcript is a hard failure, never a valid
// "silence" result: the transcript becomes the record's notes verbatim and
// must not be fabricated.
type TranscriptionService interface {
  Transcribe(ctx context.Context, wav []byte) (string, error)
}

type transcriptionService struct {
  log        *logger.Logger
  baseURL    string
  httpClient *http.Client
}

func NewTranscriptionService(log *logger.Logger) TranscriptionService {
  serviceLog := log.With("service", "TranscriptionService")
  baseURL := strings.TrimRight(utils.GetEnv("VOICE_API_BASE_URL", "http://localhost:7001", log), "/")
  timeoutSec := utils.GetEnvAsInt("VOICE_API_TIMEOUT_SECONDS", 90, log)
  return &transcriptionService{
    log:        serviceLog,
    baseURL:    baseURL,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }
}

type transcribeResponse struct {
  Text string `json:"text"`
}

func (t *transcriptionService) Transcribe(ctx context.Context, wav []byte) (string, error) {
  if len(wav) == 0 {
    return "", fmt.Errorf("no audio bytes given")
  }

  raw, err := postWAVMultipart(ctx, t.httpClient, t.baseURL+"/voice/transcribe", wav)
  if err != nil {
    return "", fmt.Errorf("voice transcribe call: %w", err)
  }

  var resp transcribeResponse
  if err := json.Unmarshal(raw, &resp); err != nil {
    return "", fmt.Errorf("voice transcribe decode: %w; raw=%s", err, truncateForLog(raw))
  }

  text := strings.TrimSpace(resp.Text)
  if text == "" {
    return "", fmt.Errorf("empty transcription result")
  }

  t.log.Debug("Audio transcribed", "chars", len(text))
  return text, nil
}

// postWAVMultipart uploads wav bytes as the "file" form field and returns the
// response body. Non-2xx statuses are errors carrying the body for diagnosis.
func postWAVMultipart(ctx context.Context, client *http.Client, url string, wav []byte) ([]byte, error) {
  var buf bytes.Buffer
  writer := multipart.NewWriter(&buf)
  part, err := writer.CreateFormFile("file", "audio.wav")
  if err != nil {
    return nil, err
  }
  if _, err := part.Write(wav); err != nil {
    return nil, err
  }
  if err := writer.Close(); err != nil {
    return nil, err
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
  if err != nil {
    return nil, err
  }
  req.Header.Set("Content-Type", writer.FormDataContentType())

  resp, err := client.Do(req)
  if err != nil {
    return nil, err
  }
  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return nil, readErr
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, fmt.Errorf("voice api http %d: %s", resp.StatusCode, truncateForLog(raw))
  }
  return raw, nil
}

func truncateForLog(raw []byte) string {
  s := string(raw)
  if len(s) > 500 {
    return s[:500] + "..."
  }
  return s
}
