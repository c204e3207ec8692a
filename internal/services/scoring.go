package services

import (
  "context"
  "encoding/json"
  "fmt"
  "io"
  "strings"
  "time"

  "github.com/invopop/jsonschema"
  "github.com/openai/openai-go"
  "github.com/openai/openai-go/option"
  "github.com/openai/openai-go/responses"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/types"
  "github.com/mentislabs/mentis-backend/internal/utils"
)

// MoodAnalysis is a fully-populated candidate record ready for persistence.
type MoodAnalysis struct {
  ScoreMood    int    `json:"score_mood"`
  ScoreAnxiety int    `json:"score_anxiety"`
  ScoreEnergy  int    `json:"score_energy"`
  ScoreSleep   int    `json:"score_sleep"`
  ScoreStress  int    `json:"score_stress"`
  Notes        string `json:"notes,omitempty"`
  AIInsight    string `json:"ai_insight"`
}

// ScoringService asks the model for wellness scores and the empathic insight.
// Model or parse failure never propagates: the result degrades to a
// documented fallback so a capture request always completes.
type ScoringService interface {
  ScoreVoice(ctx context.Context, transcript string, metrics *types.VoiceMetrics) *MoodAnalysis
  GenerateInsight(ctx context.Context, notes string) string
}

const (
  // Fallback values used when the completion cannot be parsed or violates
  // the score domain.
  fallbackVoiceInsight = "Could not analyze your mood right now."
  fallbackTextInsight  = "Could not generate an insight right now."

  voiceScoringPrompt = `You are the assistant of the Mentis emotional wellbeing platform.

Analyze the user's emotional state from their daily check-in transcript and the
vocal metrics attached to it.

Rules:
- "notes" must be EXACTLY what the user said. Do not invent or add anything.
- Be empathic and precise in "ai_insight".
- Pitch mean above 250Hz can indicate anxiety; jitter above 0.01 can indicate tension.`

  textInsightPrompt = `You are the assistant of the Mentis emotional wellbeing platform.
Analyze the user's check-in text and produce a brief, empathic "ai_insight"
about their emotional state.`
)

type voiceScoreResponse struct {
  ScoreMood    int    `json:"score_mood" jsonschema:"description=Overall mood: 1=very bad 2=bad 3=neutral 4=good 5=very good"`
  ScoreAnxiety int    `json:"score_anxiety" jsonschema:"description=Anxiety level: 1=very low 5=very high"`
  ScoreEnergy  int    `json:"score_energy" jsonschema:"description=Energy level: 1=very low 5=very high"`
  ScoreSleep   int    `json:"score_sleep" jsonschema:"description=Sleep quality: 1=very bad 5=excellent"`
  ScoreStress  int    `json:"score_stress" jsonschema:"description=Stress level: 1=very low 5=very high"`
  Notes        string `json:"notes" jsonschema:"description=Exact transcript of what the user said. Do not invent or add anything."`
  AIInsight    string `json:"ai_insight" jsonschema:"description=Brief empathic insight based on the transcript and the vocal metrics"`
}

type insightResponse struct {
  AIInsight string `json:"ai_insight" jsonschema:"description=Brief empathic insight about the user's emotional state"`
}

var (
  voiceScoreSchema = generateSchema[voiceScoreResponse]()
  insightSchema    = generateSchema[insightResponse]()
)

type scoringService struct {
  log    *logger.Logger
  client *openai.Client
  model  string

  timeout time.Duration
}

// NewScoringService wraps a process-scoped OpenAI client built once at
// startup; the client carries its own connection pooling.
func NewScoringService(log *logger.Logger) (ScoringService, error) {
  apiKey := utils.GetEnv("OPENAI_API_KEY", "", nil)
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }
  model := utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log)
  timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 180, log)

  client := openai.NewClient(option.WithAPIKey(apiKey))
  return &scoringService{
    log:     log.With("service", "ScoringService"),
    client:  &client,
    model:   model,
    timeout: time.Duration(timeoutSec) * time.Second,
  }, nil
}

func (s *scoringService) ScoreVoice(ctx context.Context, transcript string, metrics *types.VoiceMetrics) *MoodAnalysis {
  fallback := &MoodAnalysis{
    ScoreMood:    types.ScoreNeutral,
    ScoreAnxiety: types.ScoreNeutral,
    ScoreEnergy:  types.ScoreNeutral,
    ScoreSleep:   types.ScoreNeutral,
    ScoreStress:  types.ScoreNeutral,
    Notes:        transcript,
    AIInsight:    fallbackVoiceInsight,
  }

  input := buildVoiceScoringInput(transcript, metrics)
  raw, err := s.generateJSON(ctx, voiceScoringPrompt, input, "MoodAnalysis", voiceScoreSchema)
  if err != nil {
    s.log.Warn("Voice scoring failed, using neutral fallback", "error", err)
    return fallback
  }

  var out voiceScoreResponse
  if err := decodeModelJSON(raw, &out); err != nil {
    s.log.Warn("Voice scoring output unparseable, using neutral fallback", "error", err)
    return fallback
  }
  if !types.ValidScore(out.ScoreMood) || !types.ValidScore(out.ScoreAnxiety) ||
    !types.ValidScore(out.ScoreEnergy) || !types.ValidScore(out.ScoreSleep) ||
    !types.ValidScore(out.ScoreStress) {
    s.log.Warn("Voice scoring output out of range, using neutral fallback",
      "mood", out.ScoreMood, "anxiety", out.ScoreAnxiety, "energy", out.ScoreEnergy,
      "sleep", out.ScoreSleep, "stress", out.ScoreStress,
    )
    return fallback
  }
  if strings.TrimSpace(out.AIInsight) == "" {
    out.AIInsight = fallbackVoiceInsight
  }

  return &MoodAnalysis{
    ScoreMood:    out.ScoreMood,
    ScoreAnxiety: out.ScoreAnxiety,
    ScoreEnergy:  out.ScoreEnergy,
    ScoreSleep:   out.ScoreSleep,
    ScoreStress:  out.ScoreStress,
    Notes:        transcript,
    AIInsight:    out.AIInsight,
  }
}

func (s *scoringService) GenerateInsight(ctx context.Context, notes string) string {
  raw, err := s.generateJSON(ctx, textInsightPrompt, notes, "MoodInsight", insightSchema)
  if err != nil {
    s.log.Warn("Insight generation failed, using fallback", "error", err)
    return fallbackTextInsight
  }

  var out insightResponse
  if err := decodeModelJSON(raw, &out); err != nil {
    s.log.Warn("Insight output unparseable, using fallback", "error", err)
    return fallbackTextInsight
  }
  insight := strings.TrimSpace(out.AIInsight)
  if insight == "" {
    return fallbackTextInsight
  }
  return insight
}

func (s *scoringService) generateJSON(ctx context.Context, instructions, input, schemaName string, schema map[string]interface{}) (string, error) {
  ctx, cancel := context.WithTimeout(ctx, s.timeout)
  defer cancel()

  format := responses.ResponseFormatTextConfigUnionParam{
    OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
      Name:   schemaName,
      Schema: schema,
      Strict: openai.Bool(true),
      Type:   "json_schema",
    },
  }

  params := responses.ResponseNewParams{
    Model:           s.model,
    MaxOutputTokens: openai.Int(600),
    Instructions:    openai.String(instructions),
    Input: responses.ResponseNewParamsInputUnion{
      OfInputItemList: []responses.ResponseInputItemUnionParam{
        responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
      },
    },
    Text: responses.ResponseTextConfigParam{
      Format: format,
    },
  }

  resp, err := s.client.Responses.New(ctx, params)
  if err != nil {
    return "", err
  }
  return resp.OutputText(), nil
}

// buildVoiceScoringInput combines the transcript with the four derived
// descriptors forwarded as contextual signal.
func buildVoiceScoringInput(transcript string, metrics *types.VoiceMetrics) string {
  var b strings.Builder
  fmt.Fprintf(&b, "Transcript: %q\n\n", transcript)
  if metrics != nil {
    b.WriteString("Vocal metrics:\n")
    fmt.Fprintf(&b, "- Pitch mean: %.1fHz\n", metrics.PitchMean)
    fmt.Fprintf(&b, "- Jitter: %.3f\n", metrics.JitterLocal)
    fmt.Fprintf(&b, "- Vocal energy (RMS): %.3f\n", metrics.RMS)
    fmt.Fprintf(&b, "- Zero-crossing rate: %.4f\n", metrics.ZCR)
  }
  return b.String()
}

// decodeModelJSON treats the completion as untrusted text: strict decode
// first, then a best-effort extraction of the first top-level object.
func decodeModelJSON(outputText string, v any) error {
  s := strings.TrimSpace(outputText)
  if s == "" {
    return io.ErrUnexpectedEOF
  }

  if err := json.Unmarshal([]byte(s), v); err == nil {
    return nil
  }

  start := strings.IndexByte(s, '{')
  end := strings.LastIndexByte(s, '}')
  if start != -1 && end == -1 {
    return io.ErrUnexpectedEOF
  }
  if start == -1 || end == -1 || end <= start {
    return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
  }

  sub := s[start : end+1]
  if err := json.Unmarshal([]byte(sub), v); err != nil {
    return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
  }
  return nil
}

const (
  typeKey                 = "type"
  propertiesKey           = "properties"
  requiredKey             = "required"
  itemsKey                = "items"
  additionalPropertiesKey = "additionalProperties"
)

func generateSchema[T any]() map[string]interface{} {
  reflector := jsonschema.Reflector{
    AllowAdditionalProperties:  false,
    DoNotReference:             true,
    RequiredFromJSONSchemaTags: true,
  }
  var v T
  schema := reflector.Reflect(v)
  schemaObj, err := schemaToMap(schema)
  if err != nil {
    panic(err)
  }
  ensureOpenAICompliance(schemaObj)
  return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
  b, err := schema.MarshalJSON()
  if err != nil {
    return nil, err
  }
  var m map[string]interface{}
  if err := json.Unmarshal(b, &m); err != nil {
    return nil, err
  }
  return m, nil
}

// ensureOpenAICompliance makes the reflected schema valid for strict
// structured outputs: every object closes additionalProperties and requires
// all of its properties.
func ensureOpenAICompliance(schema map[string]interface{}) {
  if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
    schema[additionalPropertiesKey] = false

    if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
      var requiredFields []string
      for propName := range properties {
        requiredFields = append(requiredFields, propName)
      }
      if len(requiredFields) > 0 {
        schema[requiredKey] = requiredFields
      }
    }
  }

  if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
    for _, prop := range properties {
      if propMap, ok := prop.(map[string]interface{}); ok {
        ensureOpenAICompliance(propMap)
      }
    }
  }

  if items, ok := schema[itemsKey].(map[string]interface{}); ok {
    ensureOpenAICompliance(items)
  }

  if additionalProps, ok := schema[additionalPropertiesKey].(map[string]interface{}); ok {
    ensureOpenAICompliance(additionalProps)
  }
}
