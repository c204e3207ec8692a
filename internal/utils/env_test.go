package utils

import "testing"

func TestGetEnv(t *testing.T) {
  t.Setenv("MENTIS_TEST_STR", "custom")
  if got := GetEnv("MENTIS_TEST_STR", "fallback", nil); got != "custom" {
    t.Fatalf("GetEnv = %q, want custom", got)
  }
  if got := GetEnv("MENTIS_TEST_STR_MISSING", "fallback", nil); got != "fallback" {
    t.Fatalf("GetEnv = %q, want fallback", got)
  }
}

func TestGetEnvAsInt(t *testing.T) {
  t.Setenv("MENTIS_TEST_INT", "42")
  if got := GetEnvAsInt("MENTIS_TEST_INT", 7, nil); got != 42 {
    t.Fatalf("GetEnvAsInt = %d, want 42", got)
  }
  if got := GetEnvAsInt("MENTIS_TEST_INT_MISSING", 7, nil); got != 7 {
    t.Fatalf("GetEnvAsInt = %d, want 7", got)
  }

  t.Setenv("MENTIS_TEST_INT_BAD", "not-a-number")
  if got := GetEnvAsInt("MENTIS_TEST_INT_BAD", 7, nil); got != 7 {
    t.Fatalf("GetEnvAsInt = %d, want default on parse failure", got)
  }
}
