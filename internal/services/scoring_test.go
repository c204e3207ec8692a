package services

import (
  "context"
  "encoding/json"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"
  "time"

  "github.com/openai/openai-go"
  "github.com/openai/openai-go/option"

  "github.com/mentislabs/mentis-backend/internal/types"
)

func TestDecodeModelJSON(t *testing.T) {
  cases := []struct {
    name    string
    input   string
    wantErr bool
    want    voiceScoreResponse
  }{
    {
      name:  "clean_object",
      input: `{"score_mood":4,"score_anxiety":2,"score_energy":3,"score_sleep":3,"score_stress":2,"notes":"ok","ai_insight":"steady"}`,
      want:  voiceScoreResponse{ScoreMood: 4, ScoreAnxiety: 2, ScoreEnergy: 3, ScoreSleep: 3, ScoreStress: 2, Notes: "ok", AIInsight: "steady"},
    },
    {
      name:  "object_wrapped_in_prose",
      input: "Here is the result:\n```json\n{\"score_mood\":5,\"score_anxiety\":1,\"score_energy\":5,\"score_sleep\":5,\"score_stress\":1,\"notes\":\"great\",\"ai_insight\":\"bright\"}\n```",
      want:  voiceScoreResponse{ScoreMood: 5, ScoreAnxiety: 1, ScoreEnergy: 5, ScoreSleep: 5, ScoreStress: 1, Notes: "great", AIInsight: "bright"},
    },
    {
      name:    "empty_output",
      input:   "   ",
      wantErr: true,
    },
    {
      name:    "no_object_at_all",
      input:   "I cannot help with that.",
      wantErr: true,
    },
    {
      name:    "truncated_object",
      input:   `{"score_mood":4,"score_anxiety":2`,
      wantErr: true,
    },
  }

  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      var out voiceScoreResponse
      err := decodeModelJSON(tc.input, &out)
      if tc.wantErr {
        if err == nil {
          t.Fatalf("expected decode error, got %+v", out)
        }
        return
      }
      if err != nil {
        t.Fatalf("decodeModelJSON: %v", err)
      }
      if out != tc.want {
        t.Fatalf("decoded = %+v, want %+v", out, tc.want)
      }
    })
  }
}

func TestGenerateSchemaIsStrictCompliant(t *testing.T) {
  schema := generateSchema[voiceScoreResponse]()

  if schema["type"] != "object" {
    t.Fatalf("schema type = %v", schema["type"])
  }
  if ap, ok := schema["additionalProperties"].(bool); !ok || ap {
    t.Fatalf("additionalProperties = %v, want false", schema["additionalProperties"])
  }

  props, ok := schema["properties"].(map[string]interface{})
  if !ok {
    t.Fatalf("schema has no properties map")
  }
  for _, field := range []string{"score_mood", "score_anxiety", "score_energy", "score_sleep", "score_stress", "notes", "ai_insight"} {
    if _, ok := props[field]; !ok {
      t.Fatalf("schema missing property %q", field)
    }
  }

  required, ok := schema["required"].([]string)
  if !ok {
    t.Fatalf("required = %T, want []string", schema["required"])
  }
  if len(required) != len(props) {
    t.Fatalf("strict mode requires every property: required=%d properties=%d", len(required), len(props))
  }
}

// modelServer fakes the completions endpoint: every request gets a response
// envelope whose single message carries outputText verbatim.
func modelServer(t *testing.T, status int, outputText string) *httptest.Server {
  t.Helper()
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if status < 200 || status >= 300 {
      http.Error(w, `{"error":{"message":"model unavailable"}}`, status)
      return
    }
    body := map[string]any{
      "id":         "resp_test",
      "object":     "response",
      "created_at": 0,
      "model":      "gpt-4o-mini",
      "status":     "completed",
      "output": []map[string]any{
        {
          "type":   "message",
          "id":     "msg_test",
          "status": "completed",
          "role":   "assistant",
          "content": []map[string]any{
            {"type": "output_text", "text": outputText, "annotations": []any{}},
          },
        },
      },
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(body)
  }))
  t.Cleanup(srv.Close)
  return srv
}

func scoringServiceFor(t *testing.T, srv *httptest.Server) *scoringService {
  t.Helper()
  client := openai.NewClient(
    option.WithAPIKey("test-key"),
    option.WithBaseURL(srv.URL+"/"),
    option.WithMaxRetries(0),
  )
  return &scoringService{
    log:     testLogger(t),
    client:  &client,
    model:   "gpt-4o-mini",
    timeout: 10 * time.Second,
  }
}

func isNeutralFallback(t *testing.T, got *MoodAnalysis, transcript string) {
  t.Helper()
  if got == nil {
    t.Fatalf("scoring must never return nil")
  }
  if got.ScoreMood != types.ScoreNeutral || got.ScoreAnxiety != types.ScoreNeutral ||
    got.ScoreEnergy != types.ScoreNeutral || got.ScoreSleep != types.ScoreNeutral ||
    got.ScoreStress != types.ScoreNeutral {
    t.Fatalf("scores = %+v, want all neutral", got)
  }
  if got.Notes != transcript {
    t.Fatalf("notes = %q, want verbatim transcript", got.Notes)
  }
  if got.AIInsight != fallbackVoiceInsight {
    t.Fatalf("ai_insight = %q, want fallback", got.AIInsight)
  }
}

func TestScoreVoiceDegradesToNeutralFallback(t *testing.T) {
  const transcript = "slept two hours, big day ahead"

  cases := []struct {
    name   string
    status int
    output string
  }{
    {"model_error", http.StatusInternalServerError, ""},
    {"unparseable_output", http.StatusOK, "Sorry, I cannot help with that."},
    {
      "out_of_range_scores",
      http.StatusOK,
      `{"score_mood":9,"score_anxiety":2,"score_energy":3,"score_sleep":1,"score_stress":2,"notes":"x","ai_insight":"y"}`,
    },
    {
      "zero_scores",
      http.StatusOK,
      `{"score_mood":0,"score_anxiety":0,"score_energy":0,"score_sleep":0,"score_stress":0,"notes":"x","ai_insight":"y"}`,
    },
  }

  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      svc := scoringServiceFor(t, modelServer(t, tc.status, tc.output))
      got := svc.ScoreVoice(context.Background(), transcript, &types.VoiceMetrics{PitchMean: 200})
      isNeutralFallback(t, got, transcript)
    })
  }
}

func TestScoreVoiceUsesWellFormedModelOutput(t *testing.T) {
  const transcript = "feeling steady today"
  output := `{"score_mood":4,"score_anxiety":2,"score_energy":4,"score_sleep":3,"score_stress":2,"notes":"feeling steady today","ai_insight":"You sound grounded."}`

  svc := scoringServiceFor(t, modelServer(t, http.StatusOK, output))
  got := svc.ScoreVoice(context.Background(), transcript, &types.VoiceMetrics{})
  if got.ScoreMood != 4 || got.ScoreAnxiety != 2 || got.ScoreEnergy != 4 || got.ScoreSleep != 3 || got.ScoreStress != 2 {
    t.Fatalf("scores = %+v", got)
  }
  if got.AIInsight != "You sound grounded." {
    t.Fatalf("ai_insight = %q", got.AIInsight)
  }
  if got.Notes != transcript {
    t.Fatalf("notes = %q, want verbatim transcript", got.Notes)
  }
}

func TestGenerateInsightFallsBack(t *testing.T) {
  cases := []struct {
    name   string
    status int
    output string
    want   string
  }{
    {"model_error", http.StatusInternalServerError, "", fallbackTextInsight},
    {"unparseable_output", http.StatusOK, "no json here", fallbackTextInsight},
    {"blank_insight", http.StatusOK, `{"ai_insight":"   "}`, fallbackTextInsight},
    {"valid_insight", http.StatusOK, `{"ai_insight":"A calm, steady day."}`, "A calm, steady day."},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      svc := scoringServiceFor(t, modelServer(t, tc.status, tc.output))
      if got := svc.GenerateInsight(context.Background(), "wrote in my journal"); got != tc.want {
        t.Fatalf("insight = %q, want %q", got, tc.want)
      }
    })
  }
}

func TestBuildVoiceScoringInput(t *testing.T) {
  input := buildVoiceScoringInput("slept badly", &types.VoiceMetrics{
    PitchMean:   261.3,
    JitterLocal: 0.012,
    RMS:         0.041,
    ZCR:         0.0713,
  })

  for _, want := range []string{`Transcript: "slept badly"`, "Pitch mean: 261.3Hz", "Jitter: 0.012", "RMS): 0.041", "Zero-crossing rate: 0.0713"} {
    if !strings.Contains(input, want) {
      t.Fatalf("scoring input missing %q:\n%s", want, input)
    }
  }

  bare := buildVoiceScoringInput("no metrics", nil)
  if strings.Contains(bare, "Vocal metrics") {
    t.Fatalf("nil metrics must omit the metrics block:\n%s", bare)
  }
}
