package repos

import (
  "context"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/types"
)

type MoodRecordRepo interface {
  Create(ctx context.Context, tx *gorm.DB, record *types.MoodRecord) (*types.MoodRecord, error)
  GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.MoodRecord, error)
  GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (*types.MoodRecord, error)
  ExistsForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (bool, error)
  DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, userID uuid.UUID) error
  ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page, pageSize int) ([]*types.MoodRecord, error)
  CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
  ListByUserAndRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, start, end time.Time) ([]*types.MoodRecord, error)
  ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MoodRecord, error)
}

type moodRecordRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMoodRecordRepo(db *gorm.DB, baseLog *logger.Logger) MoodRecordRepo {
  repoLog := baseLog.With("repo", "MoodRecordRepo")
  return &moodRecordRepo{db: db, log: repoLog}
}

func (mr *moodRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.MoodRecord) (*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  if record == nil {
    return nil, errors.New("no record given")
  }
  record.Date = types.DayOf(record.Date)

  if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
    if errors.Is(err, gorm.ErrDuplicatedKey) {
      return nil, ErrAlreadyRecorded
    }
    return nil, err
  }
  return record, nil
}

func (mr *moodRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var result types.MoodRecord
  if err := transaction.WithContext(ctx).
    Where("id = ?", recordID).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (mr *moodRecordRepo) GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var result types.MoodRecord
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND date = ?", userID, types.DayOf(day)).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (mr *moodRecordRepo) ExistsForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.MoodRecord{}).
    Where("user_id = ? AND date = ?", userID, types.DayOf(day)).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

// DeleteByIDAndUser hard-deletes one record, scoped to the owning user so a
// foreign id cannot be removed. Zero rows affected reports ErrNotFound.
func (mr *moodRecordRepo) DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, userID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  res := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", recordID, userID).
    Delete(&types.MoodRecord{})
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return ErrNotFound
  }
  return nil
}

func (mr *moodRecordRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page, pageSize int) ([]*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  if page < 1 {
    page = 1
  }
  if pageSize < 1 {
    pageSize = 10
  }

  var results []*types.MoodRecord
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("date DESC").
    Offset((page - 1) * pageSize).
    Limit(pageSize).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (mr *moodRecordRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.MoodRecord{}).
    Where("user_id = ?", userID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (mr *moodRecordRepo) ListByUserAndRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, start, end time.Time) ([]*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var results []*types.MoodRecord
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
    Order("date ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (mr *moodRecordRepo) ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MoodRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }

  var results []*types.MoodRecord
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("date ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
