package handlers

import (
  "errors"
  "fmt"
  "io"
  "net/http"
  "strconv"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/repos"
  "github.com/mentislabs/mentis-backend/internal/requestdata"
  "github.com/mentislabs/mentis-backend/internal/services"
)

// Browser recordings of a one-minute check-in stay well under this.
const maxAudioUploadBytes = 25 << 20

type MoodRecordHandler struct {
  log       *logger.Logger
  moodSvc   services.MoodRecordService
  analytics services.MoodAnalyticsService
  report    services.MoodReportService
}

func NewMoodRecordHandler(log *logger.Logger, moodSvc services.MoodRecordService, analytics services.MoodAnalyticsService, report services.MoodReportService) *MoodRecordHandler {
  return &MoodRecordHandler{
    log:       log.With("handler", "MoodRecordHandler"),
    moodSvc:   moodSvc,
    analytics: analytics,
    report:    report,
  }
}

func userIDFrom(c *gin.Context) (uuid.UUID, error) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    return uuid.Nil, fmt.Errorf("user id not found in request")
  }
  return rd.UserID, nil
}

// POST /mood-record/analyze-voice
func (h *MoodRecordHandler) AnalyzeVoice(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  fileHeader, err := c.FormFile("file")
  if err != nil {
    RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("audio file is required"))
    return
  }
  if fileHeader.Size > maxAudioUploadBytes {
    RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("audio file exceeds upload limit"))
    return
  }

  f, err := fileHeader.Open()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "unreadable_file", err)
    return
  }
  defer f.Close()
  audio, err := io.ReadAll(f)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "unreadable_file", err)
    return
  }

  result, err := h.moodSvc.AnalyzeVoice(c.Request.Context(), userID, audio)
  if err != nil {
    h.log.Error("Voice capture failed", "user_id", userID, "error", err)
    RespondError(c, http.StatusBadGateway, "capture_failed", err)
    return
  }
  RespondOK(c, result)
}

// POST /mood-record/analyze-text
func (h *MoodRecordHandler) AnalyzeText(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  var input services.CreateMoodInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_input", err)
    return
  }

  result, err := h.moodSvc.AnalyzeText(c.Request.Context(), userID, input)
  if err != nil {
    h.log.Error("Text capture failed", "user_id", userID, "error", err)
    RespondError(c, http.StatusBadGateway, "capture_failed", err)
    return
  }
  RespondOK(c, result)
}

// GET /mood-record/history?page=&limit=
func (h *MoodRecordHandler) History(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
  limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

  history, err := h.analytics.History(c.Request.Context(), userID, page, limit)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "history_failed", err)
    return
  }
  RespondOK(c, history)
}

// GET /mood-record/today
func (h *MoodRecordHandler) Today(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  has, err := h.analytics.HasRecordToday(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "today_check_failed", err)
    return
  }
  RespondOK(c, gin.H{"has_record_today": has})
}

// DELETE /mood-record/delete/:id
func (h *MoodRecordHandler) Delete(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  recordID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid record id"))
    return
  }

  if err := h.moodSvc.Delete(c.Request.Context(), userID, recordID); err != nil {
    if errors.Is(err, repos.ErrNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "delete_failed", err)
    return
  }
  RespondOK(c, gin.H{"message": "Mood record deleted."})
}

// Date-only values resolve in the server's zone, the same one record dates
// are normalized to.
func parseDateParam(v string) (time.Time, error) {
  if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
    return t, nil
  }
  return time.Parse(time.RFC3339, v)
}

// GET /mood-record/range?startDate=&endDate=
func (h *MoodRecordHandler) Range(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  start, err := parseDateParam(c.Query("startDate"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_range", fmt.Errorf("invalid startDate"))
    return
  }
  end, err := parseDateParam(c.Query("endDate"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_range", fmt.Errorf("invalid endDate"))
    return
  }

  items, err := h.analytics.ByDateRange(c.Request.Context(), userID, start, end)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "range_failed", err)
    return
  }
  RespondOK(c, gin.H{"records": items})
}

// GET /mood-record/compare-periods?period=week|month|year
func (h *MoodRecordHandler) ComparePeriods(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  comparison, err := h.analytics.ComparePeriods(c.Request.Context(), userID, c.Query("period"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "compare_failed", err)
    return
  }
  RespondOK(c, comparison)
}

// GET /mood-record/stats
func (h *MoodRecordHandler) Stats(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  stats, err := h.analytics.StatsOverview(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "stats_failed", err)
    return
  }
  RespondOK(c, stats)
}

// GET /mood-record/report/pdf
func (h *MoodRecordHandler) ReportPDF(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  filename, pdf, err := h.report.GeneratePDF(c.Request.Context(), userID)
  if err != nil {
    h.log.Error("Report generation failed", "user_id", userID, "error", err)
    RespondError(c, http.StatusInternalServerError, "report_failed", err)
    return
  }

  c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
  c.Data(http.StatusOK, "application/pdf", pdf)
}
