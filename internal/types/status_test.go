package types

import (
	"strings"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"Todo", StatusTodo, false},
		{"Doing", StatusDoing, false},
		{"todo", 0, true},
		{"Done", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStatusErrorListsVocabulary(t *testing.T) {
	_, err := ParseStatus("Blocked")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Todo, Doing") {
		t.Errorf("error %q should list vocabulary in declaration order", err)
	}
}

func TestStatusRoundTripThroughFileName(t *testing.T) {
	for _, s := range Statuses() {
		if !s.IsValid() {
			t.Errorf("%v reported invalid", s)
		}
		back, err := ParseStatus(s.FileName())
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", s.FileName(), err)
		}
		if back != s {
			t.Errorf("round trip of %v gave %v", s, back)
		}
	}
}

func TestStatusOutsideVocabulary(t *testing.T) {
	s := Status(42)
	if s.IsValid() {
		t.Error("Status(42) should be invalid")
	}
	if s.FileName() != "" {
		t.Errorf("FileName() = %q, want empty", s.FileName())
	}
	if _, err := s.MarshalText(); err == nil {
		t.Error("MarshalText should fail for invalid status")
	}
}

func TestParseStage(t *testing.T) {
	got, err := ParseStage(" Doing ")
	if err != nil {
		t.Fatalf("ParseStage: %v", err)
	}
	if got != StageDoing {
		t.Errorf("got %v, want %v", got, StageDoing)
	}

	if _, err := ParseStage(".closed"); err == nil {
		t.Error("archive dir must not parse as a stage")
	}
}

func TestStagesOrder(t *testing.T) {
	want := []Stage{StageBacklog, StageTodo, StageDoing, StageStaging, StageClosed}
	got := Stages()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stages()[%d] = %v, want %v", i, got[i], want[i])
		}
		if got[i].Index() != i {
			t.Errorf("%v.Index() = %d, want %d", got[i], got[i].Index(), i)
		}
	}
}
