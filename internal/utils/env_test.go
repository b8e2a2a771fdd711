package utils

import (
	"testing"
	"time"
)

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"yes", false, true},
		{"FALSE", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := GetEnvAsBool("TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("GetEnvAsBool(%q, %v) = %v, want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		val  string
		want time.Duration
	}{
		{"", time.Minute},
		{"300000", 5 * time.Minute},
		{"90s", 90 * time.Second},
		{"garbage", time.Minute},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.val)
		if got := GetEnvAsDuration("TEST_DURATION", time.Minute, time.Millisecond); got != tt.want {
			t.Errorf("GetEnvAsDuration(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", " a, b ,,c")
	got := GetEnvAsSlice("TEST_SLICE", nil, ",")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected slice: %q", got)
	}

	t.Setenv("TEST_SLICE", "")
	if got := GetEnvAsSlice("TEST_SLICE", []string{"x"}, ","); len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestGetEnvAsString(t *testing.T) {
	t.Setenv("TEST_STRING", "  value ")
	if got := GetEnvAsString("TEST_STRING", "d"); got != "value" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("TEST_STRING", "   ")
	if got := GetEnvAsString("TEST_STRING", "d"); got != "d" {
		t.Fatalf("got %q", got)
	}
}
