package repos

import "errors"

var (
  // ErrNotFound covers both a missing row and an ownership mismatch, so a
  // caller cannot distinguish "someone else's record" from "no record".
  ErrNotFound = errors.New("record not found")

  // ErrAlreadyRecorded is the duplicate-key outcome of the (user_id, date)
  // unique index on mood_record.
  ErrAlreadyRecorded = errors.New("mood record already exists for this day")
)
