package types

import (
  "testing"
  "time"
)

func TestValidScore(t *testing.T) {
  for s, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
    if got := ValidScore(s); got != want {
      t.Fatalf("ValidScore(%d) = %v, want %v", s, got, want)
    }
  }
}

func TestDayOf(t *testing.T) {
  loc, err := time.LoadLocation("America/Sao_Paulo")
  if err != nil {
    t.Fatalf("LoadLocation: %v", err)
  }

  cases := []struct {
    name string
    in   time.Time
    want time.Time
  }{
    {
      "utc_afternoon",
      time.Date(2025, 6, 10, 17, 45, 12, 999, time.UTC),
      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
    },
    {
      "keeps_location",
      time.Date(2025, 6, 10, 23, 59, 0, 0, loc),
      time.Date(2025, 6, 10, 0, 0, 0, 0, loc),
    },
    {
      "already_midnight",
      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
    },
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      if got := DayOf(tc.in); !got.Equal(tc.want) {
        t.Fatalf("DayOf = %v, want %v", got, tc.want)
      }
    })
  }
}
