package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/repos"
  "github.com/mentislabs/mentis-backend/internal/types"
)

const alreadyRecordedMessage = "User already has a mood record for today."

// CreateMoodInput is the text-path payload: the five scores come from the
// caller and are honored as-is, only the insight is model-generated.
type CreateMoodInput struct {
  ScoreMood    int    `json:"score_mood" binding:"required,min=1,max=5"`
  ScoreAnxiety int    `json:"score_anxiety" binding:"required,min=1,max=5"`
  ScoreEnergy  int    `json:"score_energy" binding:"required,min=1,max=5"`
  ScoreSleep   int    `json:"score_sleep" binding:"required,min=1,max=5"`
  ScoreStress  int    `json:"score_stress" binding:"required,min=1,max=5"`
  Notes        string `json:"notes"`
}

func (in CreateMoodInput) validate() error {
  for name, s := range map[string]int{
    "score_mood":    in.ScoreMood,
    "score_anxiety": in.ScoreAnxiety,
    "score_energy":  in.ScoreEnergy,
    "score_sleep":   in.ScoreSleep,
    "score_stress":  in.ScoreStress,
  } {
    if !types.ValidScore(s) {
      return fmt.Errorf("%s must be between %d and %d", name, types.ScoreMin, types.ScoreMax)
    }
  }
  return nil
}

// CaptureResult is the outcome of one capture request. AlreadyRecorded means
// the per-day invariant short-circuited the pipeline; it is not an error.
type CaptureResult struct {
  AlreadyRecorded bool                `json:"already_recorded,omitempty"`
  Message         string              `json:"message,omitempty"`
  Record          *types.MoodRecord   `json:"record,omitempty"`
  Transcription   string              `json:"transcription,omitempty"`
  VoiceMetrics    *types.VoiceMetrics `json:"voice_metrics,omitempty"`
  Analysis        *MoodAnalysis       `json:"analysis,omitempty"`
}

type MoodRecordService interface {
  AnalyzeVoice(ctx context.Context, userID uuid.UUID, audio []byte) (*CaptureResult, error)
  AnalyzeText(ctx context.Context, userID uuid.UUID, input CreateMoodInput) (*CaptureResult, error)
  Delete(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) error
}

type moodRecordService struct {
  db            *gorm.DB
  log           *logger.Logger
  moodRepo      repos.MoodRecordRepo
  media         MediaService
  transcription TranscriptionService
  voiceFeatures VoiceFeatureService
  scoring       ScoringService

  now func() time.Time
}

func NewMoodRecordService(
  db *gorm.DB,
  log *logger.Logger,
  moodRepo repos.MoodRecordRepo,
  media MediaService,
  transcription TranscriptionService,
  voiceFeatures VoiceFeatureService,
  scoring ScoringService,
) MoodRecordService {
  serviceLog := log.With("service", "MoodRecordService")
  return &moodRecordService{
    db:            db,
    log:           serviceLog,
    moodRepo:      moodRepo,
    media:         media,
    transcription: transcription,
    voiceFeatures: voiceFeatures,
    scoring:       scoring,
    now:           time.Now,
  }
}

// AnalyzeVoice runs the full voice pipeline: normalize, transcribe, extract
// features, score, persist. Steps are strictly sequential and any failure
// before persistence aborts with nothing written.
func (ms *moodRecordService) AnalyzeVoice(ctx context.Context, userID uuid.UUID, audio []byte) (*CaptureResult, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required for mood analysis")
  }
  if len(audio) == 0 {
    return nil, fmt.Errorf("audio file is required for mood analysis")
  }

  today := types.DayOf(ms.now())

  // Optimization only: skip the upstream calls when today's record already
  // exists. The unique index is what actually serializes racing requests.
  exists, err := ms.moodRepo.ExistsForDate(ctx, nil, userID, today)
  if err != nil {
    return nil, fmt.Errorf("failed to check today's record: %w", err)
  }
  if exists {
    ms.log.Info("User already has a mood record for today, skipping pipeline", "user_id", userID)
    return &CaptureResult{AlreadyRecorded: true, Message: alreadyRecordedMessage}, nil
  }

  wav, err := ms.media.ConvertToWAV(ctx, audio)
  if err != nil {
    return nil, fmt.Errorf("failed to convert audio: %w", err)
  }

  transcript, err := ms.transcription.Transcribe(ctx, wav)
  if err != nil {
    return nil, fmt.Errorf("failed to transcribe audio: %w", err)
  }

  metrics, err := ms.voiceFeatures.Analyze(ctx, wav)
  if err != nil {
    return nil, fmt.Errorf("failed to analyze voice metrics: %w", err)
  }

  analysis := ms.scoring.ScoreVoice(ctx, transcript, metrics)

  features, err := json.Marshal(metrics)
  if err != nil {
    return nil, fmt.Errorf("failed to encode voice metrics: %w", err)
  }

  record := &types.MoodRecord{
    UserID:       userID,
    Date:         today,
    ScoreMood:    analysis.ScoreMood,
    ScoreAnxiety: analysis.ScoreAnxiety,
    ScoreEnergy:  analysis.ScoreEnergy,
    ScoreSleep:   analysis.ScoreSleep,
    ScoreStress:  analysis.ScoreStress,
    Notes:        transcript,
    AIInsight:    analysis.AIInsight,
    AIFeatures:   datatypes.JSON(features),
  }

  created, err := ms.moodRepo.Create(ctx, nil, record)
  if err != nil {
    if errors.Is(err, repos.ErrAlreadyRecorded) {
      // A concurrent request won the race; same outcome as the early check.
      ms.log.Info("Concurrent capture already recorded today", "user_id", userID)
      return &CaptureResult{AlreadyRecorded: true, Message: alreadyRecordedMessage}, nil
    }
    return nil, fmt.Errorf("failed to persist mood record: %w", err)
  }

  return &CaptureResult{
    Record:        created,
    Transcription: transcript,
    VoiceMetrics:  metrics,
    Analysis:      analysis,
  }, nil
}

// AnalyzeText persists the caller-supplied scores with a model-generated
// insight. Score validation happens before any external call.
func (ms *moodRecordService) AnalyzeText(ctx context.Context, userID uuid.UUID, input CreateMoodInput) (*CaptureResult, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required for mood text analysis")
  }
  if err := input.validate(); err != nil {
    return nil, err
  }

  today := types.DayOf(ms.now())

  exists, err := ms.moodRepo.ExistsForDate(ctx, nil, userID, today)
  if err != nil {
    return nil, fmt.Errorf("failed to check today's record: %w", err)
  }
  if exists {
    ms.log.Info("User already has a mood record for today, skipping AI call", "user_id", userID)
    return &CaptureResult{AlreadyRecorded: true, Message: alreadyRecordedMessage}, nil
  }

  insight := ms.scoring.GenerateInsight(ctx, input.Notes)

  record := &types.MoodRecord{
    UserID:       userID,
    Date:         today,
    ScoreMood:    input.ScoreMood,
    ScoreAnxiety: input.ScoreAnxiety,
    ScoreEnergy:  input.ScoreEnergy,
    ScoreSleep:   input.ScoreSleep,
    ScoreStress:  input.ScoreStress,
    Notes:        input.Notes,
    AIInsight:    insight,
  }

  created, err := ms.moodRepo.Create(ctx, nil, record)
  if err != nil {
    if errors.Is(err, repos.ErrAlreadyRecorded) {
      ms.log.Info("Concurrent capture already recorded today", "user_id", userID)
      return &CaptureResult{AlreadyRecorded: true, Message: alreadyRecordedMessage}, nil
    }
    return nil, fmt.Errorf("failed to persist mood record: %w", err)
  }

  return &CaptureResult{
    Record: created,
    Analysis: &MoodAnalysis{
      ScoreMood:    input.ScoreMood,
      ScoreAnxiety: input.ScoreAnxiety,
      ScoreEnergy:  input.ScoreEnergy,
      ScoreSleep:   input.ScoreSleep,
      ScoreStress:  input.ScoreStress,
      Notes:        input.Notes,
      AIInsight:    insight,
    },
  }, nil
}

func (ms *moodRecordService) Delete(ctx context.Context, userID uuid.UUID, recordID uuid.UUID) error {
  if userID == uuid.Nil {
    return fmt.Errorf("user id is required")
  }
  if recordID == uuid.Nil {
    return fmt.Errorf("record id is required")
  }
  if err := ms.moodRepo.DeleteByIDAndUser(ctx, nil, recordID, userID); err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      return err
    }
    return fmt.Errorf("failed to delete mood record: %w", err)
  }
  return nil
}
