package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/chromedp/cdproto/page"
  "github.com/chromedp/chromedp"
  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/repos"
  "github.com/mentislabs/mentis-backend/internal/types"
)

// MoodReportService renders a user's last 30 days into a downloadable PDF.
type MoodReportService interface {
  GeneratePDF(ctx context.Context, userID uuid.UUID) (string, []byte, error)
}

type moodReportService struct {
  db        *gorm.DB
  log       *logger.Logger
  userRepo  repos.UserRepo
  analytics MoodAnalyticsService

  renderTimeout time.Duration
  now           func() time.Time
}

func NewMoodReportService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, analytics MoodAnalyticsService) MoodReportService {
  serviceLog := log.With("service", "MoodReportService")
  return &moodReportService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    analytics:     analytics,
    renderTimeout: 60 * time.Second,
    now:           time.Now,
  }
}

func (mr *moodReportService) GeneratePDF(ctx context.Context, userID uuid.UUID) (string, []byte, error) {
  if userID == uuid.Nil {
    return "", nil, fmt.Errorf("user id is required for report generation")
  }

  var user *types.User
  var recent []MoodHistoryItem
  var stats *StatsOverview

  today := types.DayOf(mr.now())

  g, gctx := errgroup.WithContext(ctx)
  g.Go(func() error {
    u, err := mr.userRepo.GetByID(gctx, nil, userID)
    if err != nil {
      return fmt.Errorf("failed to load user: %w", err)
    }
    user = u
    return nil
  })
  g.Go(func() error {
    items, err := mr.analytics.ByDateRange(gctx, userID, today.AddDate(0, 0, -29), today)
    if err != nil {
      return fmt.Errorf("failed to load last 30 days: %w", err)
    }
    recent = items
    return nil
  })
  g.Go(func() error {
    s, err := mr.analytics.StatsOverview(gctx, userID)
    if err != nil {
      return fmt.Errorf("failed to load stats overview: %w", err)
    }
    stats = s
    return nil
  })
  if err := g.Wait(); err != nil {
    return "", nil, err
  }

  html := buildReportHTML(user, recent, stats, today)

  pdf, err := mr.renderPDF(ctx, html)
  if err != nil {
    return "", nil, fmt.Errorf("failed to render report: %w", err)
  }

  filename := fmt.Sprintf("mentis-report-%s-%s.pdf", slugName(user.FirstName), today.Format("2006-01-02"))
  mr.log.Info("PDF report generated", "user_id", userID, "bytes", len(pdf))
  return filename, pdf, nil
}

// renderPDF prints the HTML document through headless Chrome.
func (mr *moodReportService) renderPDF(ctx context.Context, html string) ([]byte, error) {
  ctx, cancel := context.WithTimeout(ctx, mr.renderTimeout)
  defer cancel()

  allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
  defer cancelAlloc()
  tabCtx, cancelTab := chromedp.NewContext(allocCtx)
  defer cancelTab()

  var pdf []byte
  err := chromedp.Run(tabCtx,
    chromedp.Navigate("about:blank"),
    chromedp.ActionFunc(func(ctx context.Context) error {
      frameTree, err := page.GetFrameTree().Do(ctx)
      if err != nil {
        return err
      }
      return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
    }),
    chromedp.ActionFunc(func(ctx context.Context) error {
      buf, _, err := page.PrintToPDF().
        WithPrintBackground(true).
        WithPreferCSSPageSize(true).
        Do(ctx)
      if err != nil {
        return err
      }
      pdf = buf
      return nil
    }),
  )
  if err != nil {
    return nil, err
  }
  if len(pdf) == 0 {
    return nil, fmt.Errorf("renderer produced no output")
  }
  return pdf, nil
}

func slugName(name string) string {
  s := strings.ToLower(strings.TrimSpace(name))
  s = strings.ReplaceAll(s, " ", "-")
  if s == "" {
    return "user"
  }
  return s
}

// wellbeingIndex folds the five averages into one 1..5 figure with anxiety
// and stress polarity-inverted.
func wellbeingIndex(a *ScoreAverages) float64 {
  if a == nil {
    return 0
  }
  sum := a.Mood + (6 - a.Anxiety) + a.Energy + a.Sleep + (6 - a.Stress)
  return round1(sum / 5)
}

// scoreColor picks the card color. For inverted metrics (anxiety, stress) a
// LOW value is the good outcome.
func scoreColor(avg float64, inverted bool) string {
  v := avg
  if inverted {
    v = 6 - avg
  }
  switch {
  case v >= 4:
    return "#2e7d32"
  case v >= 3:
    return "#f9a825"
  default:
    return "#c62828"
  }
}

func trendArrow(delta float64) string {
  switch {
  case delta > 0:
    return "&#8593;"
  case delta < 0:
    return "&#8595;"
  default:
    return "&#8594;"
  }
}

// trendWord describes whether a delta is moving the metric the right way.
func trendWord(delta float64, inverted bool) string {
  good := delta > 0
  if inverted {
    good = delta < 0
  }
  switch {
  case delta == 0:
    return "stable"
  case good:
    return "improving"
  default:
    return "worsening"
  }
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 32px; }
  h1 { color: #4a148c; margin-bottom: 0; }
  .subtitle { color: #666; margin-top: 4px; }
  .cards { display: flex; gap: 12px; margin: 24px 0; }
  .card { flex: 1; border-radius: 8px; padding: 14px; color: #fff; text-align: center; }
  .card .label { font-size: 12px; text-transform: uppercase; letter-spacing: 1px; }
  .card .value { font-size: 26px; font-weight: bold; margin-top: 6px; }
  .wellbeing { background: #4a148c; border-radius: 8px; padding: 18px; color: #fff; text-align: center; margin-bottom: 24px; }
  .wellbeing .value { font-size: 34px; font-weight: bold; }
  .trends { margin-bottom: 24px; }
  .trends li { margin: 4px 0; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  th, td { border-bottom: 1px solid #ddd; padding: 8px; text-align: left; vertical-align: top; }
  th { background: #f3e5f5; }
  .insight { color: #555; font-style: italic; }
</style>
</head>
<body>
  <h1>Mentis Wellbeing Report</h1>
  <p class="subtitle">{{USER_NAME}} &mdash; generated {{REPORT_DATE}} &mdash; {{RECORD_COUNT}} check-ins in the last 30 days</p>

  <div class="wellbeing">
    <div>Wellbeing index</div>
    <div class="value">{{WELLBEING_INDEX}} / 5</div>
    <div>Current streak: {{STREAK_DAYS}} day(s)</div>
  </div>

  <div class="cards">
    {{SUMMARY_CARDS}}
  </div>

  <h3>Trends</h3>
  <ul class="trends">
    {{TREND_LINES}}
  </ul>

  <h3>Recent check-ins</h3>
  <table>
    <tr><th>Date</th><th>Mood</th><th>Anxiety</th><th>Energy</th><th>Sleep</th><th>Stress</th><th>Insight</th></tr>
    {{RECORD_ROWS}}
  </table>
</body>
</html>`

// buildReportHTML assembles the document by plain placeholder substitution.
func buildReportHTML(user *types.User, recent []MoodHistoryItem, stats *StatsOverview, today time.Time) string {
  name := strings.TrimSpace(user.FirstName + " " + user.LastName)

  averages := stats.Averages
  if averages == nil {
    averages = &ScoreAverages{}
  }
  trends := stats.Trends
  if trends == nil {
    trends = &ScoreAverages{}
  }

  cards := []struct {
    label    string
    avg      float64
    inverted bool
  }{
    {"Mood", averages.Mood, false},
    {"Anxiety", averages.Anxiety, true},
    {"Energy", averages.Energy, false},
    {"Sleep", averages.Sleep, false},
    {"Stress", averages.Stress, true},
  }
  var cardHTML strings.Builder
  for _, c := range cards {
    fmt.Fprintf(&cardHTML,
      `<div class="card" style="background:%s;"><div class="label">%s</div><div class="value">%.2f</div></div>`,
      scoreColor(c.avg, c.inverted), c.label, c.avg,
    )
  }

  trendLines := []struct {
    label    string
    delta    float64
    inverted bool
  }{
    {"Mood", trends.Mood, false},
    {"Anxiety", trends.Anxiety, true},
    {"Stress", trends.Stress, true},
  }
  var trendHTML strings.Builder
  for _, t := range trendLines {
    fmt.Fprintf(&trendHTML,
      `<li>%s %s %+.2f (%s)</li>`,
      t.label, trendArrow(t.delta), t.delta, trendWord(t.delta, t.inverted),
    )
  }

  // Ten most recent records, newest first.
  rows := make([]MoodHistoryItem, len(recent))
  copy(rows, recent)
  for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
    rows[i], rows[j] = rows[j], rows[i]
  }
  if len(rows) > 10 {
    rows = rows[:10]
  }
  var rowHTML strings.Builder
  for _, r := range rows {
    fmt.Fprintf(&rowHTML,
      `<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td class="insight">%s</td></tr>`,
      r.Date.Format("2006-01-02"),
      r.ScoreMood, r.ScoreAnxiety, r.ScoreEnergy, r.ScoreSleep, r.ScoreStress,
      htmlEscape(r.AIInsight),
    )
  }

  // No records means no index to report, not a zero-value one.
  wellbeing := "&ndash;"
  if stats.TotalRecords > 0 {
    wellbeing = fmt.Sprintf("%.1f", wellbeingIndex(averages))
  }

  replacer := strings.NewReplacer(
    "{{USER_NAME}}", htmlEscape(name),
    "{{REPORT_DATE}}", today.Format("2006-01-02"),
    "{{RECORD_COUNT}}", fmt.Sprintf("%d", len(recent)),
    "{{WELLBEING_INDEX}}", wellbeing,
    "{{STREAK_DAYS}}", fmt.Sprintf("%d", stats.StreakDays),
    "{{SUMMARY_CARDS}}", cardHTML.String(),
    "{{TREND_LINES}}", trendHTML.String(),
    "{{RECORD_ROWS}}", rowHTML.String(),
  )
  return replacer.Replace(reportTemplate)
}

func htmlEscape(s string) string {
  r := strings.NewReplacer(
    "&", "&amp;",
    "<", "&lt;",
    ">", "&gt;",
    `"`, "&quot;",
  )
  return r.Replace(s)
}
