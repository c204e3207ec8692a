package services

import (
  "context"
  "io"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"
)

func newVoiceServer(t *testing.T, path string, handler http.HandlerFunc) *httptest.Server {
  t.Helper()
  mux := http.NewServeMux()
  mux.HandleFunc(path, handler)
  srv := httptest.NewServer(mux)
  t.Cleanup(srv.Close)
  return srv
}

func transcriberFor(t *testing.T, srv *httptest.Server) *transcriptionService {
  t.Helper()
  return &transcriptionService{
    log:        testLogger(t),
    baseURL:    srv.URL,
    httpClient: srv.Client(),
  }
}

func TestTranscribeUploadsMultipartWAV(t *testing.T) {
  var gotField, gotFilename string
  var gotBytes []byte
  srv := newVoiceServer(t, "/voice/transcribe", func(w http.ResponseWriter, r *http.Request) {
    file, header, err := r.FormFile("file")
    if err != nil {
      t.Errorf("FormFile: %v", err)
      http.Error(w, "bad form", http.StatusBadRequest)
      return
    }
    defer file.Close()
    gotField = "file"
    gotFilename = header.Filename
    gotBytes, _ = io.ReadAll(file)
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write([]byte(`{"text":"  today was heavy but I managed  "}`))
  })

  svc := transcriberFor(t, srv)
  text, err := svc.Transcribe(context.Background(), []byte("RIFF-wav-bytes"))
  if err != nil {
    t.Fatalf("Transcribe: %v", err)
  }
  if text != "today was heavy but I managed" {
    t.Fatalf("text = %q, want trimmed transcript", text)
  }
  if gotField != "file" || gotFilename != "audio.wav" {
    t.Fatalf("upload form = %q/%q, want file/audio.wav", gotField, gotFilename)
  }
  if string(gotBytes) != "RIFF-wav-bytes" {
    t.Fatalf("uploaded bytes = %q", gotBytes)
  }
}

func TestTranscribeEmptyResultIsError(t *testing.T) {
  cases := []struct {
    name string
    body string
  }{
    {"empty_text", `{"text":""}`},
    {"whitespace_text", `{"text":"   "}`},
    {"missing_field", `{}`},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      srv := newVoiceServer(t, "/voice/transcribe", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(tc.body))
      })
      svc := transcriberFor(t, srv)
      _, err := svc.Transcribe(context.Background(), []byte("wav"))
      if err == nil || !strings.Contains(err.Error(), "empty transcription result") {
        t.Fatalf("err = %v, want empty transcription failure", err)
      }
    })
  }
}

func TestTranscribeNon2xxIsError(t *testing.T) {
  srv := newVoiceServer(t, "/voice/transcribe", func(w http.ResponseWriter, r *http.Request) {
    http.Error(w, "model crashed", http.StatusInternalServerError)
  })
  svc := transcriberFor(t, srv)
  _, err := svc.Transcribe(context.Background(), []byte("wav"))
  if err == nil || !strings.Contains(err.Error(), "http 500") {
    t.Fatalf("err = %v, want http 500 failure", err)
  }
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
  svc := &transcriptionService{log: testLogger(t), baseURL: "http://localhost:0", httpClient: http.DefaultClient}
  if _, err := svc.Transcribe(context.Background(), nil); err == nil {
    t.Fatalf("expected error for empty audio")
  }
}

func TestVoiceFeatureAnalyzeDecodesMetrics(t *testing.T) {
  srv := newVoiceServer(t, "/voice/analyze", func(w http.ResponseWriter, r *http.Request) {
    if _, _, err := r.FormFile("file"); err != nil {
      t.Errorf("FormFile: %v", err)
      http.Error(w, "bad form", http.StatusBadRequest)
      return
    }
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write([]byte(`{
      "message": "ok",
      "filename": "audio.wav",
      "content_type": "audio/wav",
      "analysis": {
        "duration_seconds": 14.2,
        "rms": 0.038,
        "tempo_bpm": 92.1,
        "mfccs_mean": [12.1, -4.2, 3.3],
        "pitch_mean": 198.7,
        "jitter_local": 0.004,
        "hnr": 17.2
      }
    }`))
  })

  svc := &voiceFeatureService{log: testLogger(t), baseURL: srv.URL, httpClient: srv.Client()}
  metrics, err := svc.Analyze(context.Background(), []byte("wav"))
  if err != nil {
    t.Fatalf("Analyze: %v", err)
  }
  if metrics.DurationSeconds != 14.2 || metrics.PitchMean != 198.7 || metrics.HNR != 17.2 {
    t.Fatalf("metrics = %+v", metrics)
  }
  if len(metrics.MFCCsMean) != 3 {
    t.Fatalf("mfccs_mean = %v", metrics.MFCCsMean)
  }
}

func TestVoiceFeatureAnalyzeBadJSONIsError(t *testing.T) {
  srv := newVoiceServer(t, "/voice/analyze", func(w http.ResponseWriter, r *http.Request) {
    _, _ = w.Write([]byte("<html>not json</html>"))
  })
  svc := &voiceFeatureService{log: testLogger(t), baseURL: srv.URL, httpClient: srv.Client()}
  if _, err := svc.Analyze(context.Background(), []byte("wav")); err == nil {
    t.Fatalf("expected decode error")
  }
}
