package services

import (
  "context"
  "fmt"
  "math"
  "sort"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/repos"
  "github.com/mentislabs/mentis-backend/internal/types"
)

// MoodHistoryItem is a record as exposed by read-side endpoints: the acoustic
// feature blob is stripped and a derived composite score is attached.
type MoodHistoryItem struct {
  ID               uuid.UUID `json:"id"`
  Date             time.Time `json:"date"`
  ScoreMood        int       `json:"score_mood"`
  ScoreAnxiety     int       `json:"score_anxiety"`
  ScoreEnergy      int       `json:"score_energy"`
  ScoreSleep       int       `json:"score_sleep"`
  ScoreStress      int       `json:"score_stress"`
  Notes            string    `json:"notes,omitempty"`
  AIInsight        string    `json:"ai_insight"`
  CreatedAt        time.Time `json:"created_at"`
  AverageMoodScore float64   `json:"average_mood_score"`
}

type MoodHistory struct {
  Records    []MoodHistoryItem `json:"records"`
  Page       int               `json:"page"`
  Limit      int               `json:"limit"`
  Total      int64             `json:"total"`
  TotalPages int               `json:"total_pages"`
}

type ScoreAverages struct {
  Mood    float64 `json:"score_mood"`
  Anxiety float64 `json:"score_anxiety"`
  Energy  float64 `json:"score_energy"`
  Sleep   float64 `json:"score_sleep"`
  Stress  float64 `json:"score_stress"`
}

type StatsOverview struct {
  TotalRecords int              `json:"total_records"`
  Averages     *ScoreAverages   `json:"averages"`
  Trends       *ScoreAverages   `json:"trends"`
  Latest       *MoodHistoryItem `json:"latest"`
  StreakDays   int              `json:"streak_days"`
}

type PeriodSummary struct {
  Start       time.Time      `json:"start"`
  End         time.Time      `json:"end"`
  RecordCount int            `json:"record_count"`
  Averages    *ScoreAverages `json:"averages"`
}

type PeriodComparison struct {
  Period   string        `json:"period"`
  Current  PeriodSummary `json:"current"`
  Previous PeriodSummary `json:"previous"`
}

type MoodAnalyticsService interface {
  History(ctx context.Context, userID uuid.UUID, page, limit int) (*MoodHistory, error)
  HasRecordToday(ctx context.Context, userID uuid.UUID) (bool, error)
  StatsOverview(ctx context.Context, userID uuid.UUID) (*StatsOverview, error)
  ComparePeriods(ctx context.Context, userID uuid.UUID, period string) (*PeriodComparison, error)
  ByDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MoodHistoryItem, error)
}

type moodAnalyticsService struct {
  db       *gorm.DB
  log      *logger.Logger
  moodRepo repos.MoodRecordRepo

  now func() time.Time
}

func NewMoodAnalyticsService(db *gorm.DB, log *logger.Logger, moodRepo repos.MoodRecordRepo) MoodAnalyticsService {
  serviceLog := log.With("service", "MoodAnalyticsService")
  return &moodAnalyticsService{
    db:       db,
    log:      serviceLog,
    moodRepo: moodRepo,
    now:      time.Now,
  }
}

func round1(v float64) float64 {
  return math.Round(v*10) / 10
}

func round2(v float64) float64 {
  return math.Round(v*100) / 100
}

// averageMoodScore folds the five scores into one "higher is better" figure:
// anxiety and stress run 1=best..5=worst, so they enter as 6-score.
func averageMoodScore(r *types.MoodRecord) float64 {
  sum := float64(r.ScoreMood) +
    float64(6-r.ScoreAnxiety) +
    float64(r.ScoreEnergy) +
    float64(r.ScoreSleep) +
    float64(6-r.ScoreStress)
  return round1(sum / 5)
}

func toHistoryItem(r *types.MoodRecord) MoodHistoryItem {
  return MoodHistoryItem{
    ID:               r.ID,
    Date:             r.Date,
    ScoreMood:        r.ScoreMood,
    ScoreAnxiety:     r.ScoreAnxiety,
    ScoreEnergy:      r.ScoreEnergy,
    ScoreSleep:       r.ScoreSleep,
    ScoreStress:      r.ScoreStress,
    Notes:            r.Notes,
    AIInsight:        r.AIInsight,
    CreatedAt:        r.CreatedAt,
    AverageMoodScore: averageMoodScore(r),
  }
}

func (ma *moodAnalyticsService) History(ctx context.Context, userID uuid.UUID, page, limit int) (*MoodHistory, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required")
  }
  if page < 1 {
    page = 1
  }
  if limit < 1 {
    limit = 10
  }

  records, err := ma.moodRepo.ListByUser(ctx, nil, userID, page, limit)
  if err != nil {
    return nil, fmt.Errorf("failed to list mood records: %w", err)
  }
  total, err := ma.moodRepo.CountByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to count mood records: %w", err)
  }

  items := make([]MoodHistoryItem, 0, len(records))
  for _, r := range records {
    items = append(items, toHistoryItem(r))
  }

  totalPages := int(math.Ceil(float64(total) / float64(limit)))
  return &MoodHistory{
    Records:    items,
    Page:       page,
    Limit:      limit,
    Total:      total,
    TotalPages: totalPages,
  }, nil
}

func (ma *moodAnalyticsService) HasRecordToday(ctx context.Context, userID uuid.UUID) (bool, error) {
  if userID == uuid.Nil {
    return false, fmt.Errorf("user id is required")
  }
  return ma.moodRepo.ExistsForDate(ctx, nil, userID, types.DayOf(ma.now()))
}

func (ma *moodAnalyticsService) StatsOverview(ctx context.Context, userID uuid.UUID) (*StatsOverview, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required")
  }

  records, err := ma.moodRepo.ListAllByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to list mood records: %w", err)
  }
  if len(records) == 0 {
    return &StatsOverview{TotalRecords: 0, StreakDays: 0}, nil
  }

  averages := scoreAverages(records)

  first := records[0]
  last := records[len(records)-1]
  trends := &ScoreAverages{
    Mood:    round2(float64(last.ScoreMood - first.ScoreMood)),
    Anxiety: round2(float64(last.ScoreAnxiety - first.ScoreAnxiety)),
    Energy:  round2(float64(last.ScoreEnergy - first.ScoreEnergy)),
    Sleep:   round2(float64(last.ScoreSleep - first.ScoreSleep)),
    Stress:  round2(float64(last.ScoreStress - first.ScoreStress)),
  }

  latest := toHistoryItem(last)

  return &StatsOverview{
    TotalRecords: len(records),
    Averages:     averages,
    Trends:       trends,
    Latest:       &latest,
    StreakDays:   streakDays(records, types.DayOf(ma.now())),
  }, nil
}

func scoreAverages(records []*types.MoodRecord) *ScoreAverages {
  if len(records) == 0 {
    return nil
  }
  var mood, anxiety, energy, sleep, stress float64
  for _, r := range records {
    mood += float64(r.ScoreMood)
    anxiety += float64(r.ScoreAnxiety)
    energy += float64(r.ScoreEnergy)
    sleep += float64(r.ScoreSleep)
    stress += float64(r.ScoreStress)
  }
  n := float64(len(records))
  return &ScoreAverages{
    Mood:    round2(mood / n),
    Anxiety: round2(anxiety / n),
    Energy:  round2(energy / n),
    Sleep:   round2(sleep / n),
    Stress:  round2(stress / n),
  }
}

// streakDays counts consecutive calendar days with a record, ending today.
// Any gap stops the count; a latest record before today means streak 0.
func streakDays(records []*types.MoodRecord, today time.Time) int {
  distinct := map[time.Time]struct{}{}
  for _, r := range records {
    distinct[types.DayOf(r.Date)] = struct{}{}
  }
  days := make([]time.Time, 0, len(distinct))
  for d := range distinct {
    days = append(days, d)
  }
  sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

  if len(days) == 0 || !days[0].Equal(today) {
    return 0
  }

  streak := 1
  for i := 1; i < len(days); i++ {
    if days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
      streak++
      continue
    }
    break
  }
  return streak
}

func endOfDay(t time.Time) time.Time {
  return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// periodRanges computes the current range for a period kind and the
// immediately preceding, equal-length range.
func periodRanges(period string, now time.Time) (curStart, curEnd, prevStart, prevEnd time.Time, err error) {
  today := types.DayOf(now)
  switch period {
  case "week":
    curStart = today.AddDate(0, 0, -6)
    curEnd = endOfDay(today)
    prevStart = today.AddDate(0, 0, -13)
    prevEnd = endOfDay(today.AddDate(0, 0, -7))
  case "month":
    curStart = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
    curEnd = endOfDay(today)
    prevMonthEnd := curStart.AddDate(0, 0, -1)
    prevStart = time.Date(prevMonthEnd.Year(), prevMonthEnd.Month(), 1, 0, 0, 0, 0, today.Location())
    prevEnd = endOfDay(prevMonthEnd)
  case "year":
    curStart = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
    curEnd = endOfDay(today)
    prevStart = time.Date(today.Year()-1, time.January, 1, 0, 0, 0, 0, today.Location())
    prevEnd = endOfDay(time.Date(today.Year()-1, time.December, 31, 0, 0, 0, 0, today.Location()))
  default:
    err = fmt.Errorf("invalid period %q: must be week, month or year", period)
  }
  return
}

func (ma *moodAnalyticsService) ComparePeriods(ctx context.Context, userID uuid.UUID, period string) (*PeriodComparison, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required")
  }
  curStart, curEnd, prevStart, prevEnd, err := periodRanges(period, ma.now())
  if err != nil {
    return nil, err
  }

  var current, previous PeriodSummary
  g, gctx := errgroup.WithContext(ctx)
  g.Go(func() error {
    s, err := ma.summarizeRange(gctx, userID, curStart, curEnd)
    if err != nil {
      return err
    }
    current = *s
    return nil
  })
  g.Go(func() error {
    s, err := ma.summarizeRange(gctx, userID, prevStart, prevEnd)
    if err != nil {
      return err
    }
    previous = *s
    return nil
  })
  if err := g.Wait(); err != nil {
    return nil, err
  }

  return &PeriodComparison{
    Period:   period,
    Current:  current,
    Previous: previous,
  }, nil
}

func (ma *moodAnalyticsService) summarizeRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (*PeriodSummary, error) {
  records, err := ma.moodRepo.ListByUserAndRange(ctx, nil, userID, start, end)
  if err != nil {
    return nil, fmt.Errorf("failed to list mood records in range: %w", err)
  }
  return &PeriodSummary{
    Start:       start,
    End:         end,
    RecordCount: len(records),
    Averages:    scoreAverages(records),
  }, nil
}

func (ma *moodAnalyticsService) ByDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MoodHistoryItem, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id is required")
  }
  if start.IsZero() || end.IsZero() {
    return nil, fmt.Errorf("start and end dates are required")
  }
  if end.Before(start) {
    return nil, fmt.Errorf("end date before start date")
  }

  records, err := ma.moodRepo.ListByUserAndRange(ctx, nil, userID, types.DayOf(start), endOfDay(end))
  if err != nil {
    return nil, fmt.Errorf("failed to list mood records in range: %w", err)
  }
  items := make([]MoodHistoryItem, 0, len(records))
  for _, r := range records {
    items = append(items, toHistoryItem(r))
  }
  return items, nil
}
