package vod

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"2:44:47", 9887, false},
		{"5:30", 330, false},
		{"0:00", 0, false},
		{"02:44:47", 9887, false},
		{"90:00", 5400, false},
		{"10:0:0", 36000, false},
		{"1:2:3:4", 0, true},
		{"42", 0, true},
		{"", 0, true},
		{"1::3", 0, true},
		{"a:30", 0, true},
		{"1:-2:3", 0, true},
		{"1.5:30", 0, true},
		{"2562047788015216:00:00", 0, true},
		{"99999999999999999999:00", 0, true},
		{"596523:14:07", 2147483647, false},
		{"596523:14:08", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrDurationFormat) {
					t.Errorf("ParseDuration(%q) error = %v, want ErrDurationFormat", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) unexpected error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTwitchDurationEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty string", "", 0},
		{"hours only", "2h", 7200},
		{"minutes only", "45m", 2700},
		{"seconds only", "30s", 30},
		{"all components", "2h44m47s", 9887},
		{"zero values", "0h0m0s", 0},
		{"no units", "123", 0},
		{"mixed with no numbers", "h1m2s3", 62},
		{"duplicate hours", "1h2h", 10800},
		{"reversed order", "3s2m1h", 3723},
		{"with spaces", "1h 2m 3s", 3723},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTwitchDuration(tt.input); got != tt.want {
				t.Errorf("ParseTwitchDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlanWindows(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		stride   int
		want     []int
	}{
		{"exact multiple", 900, 300, []int{0, 300, 600}},
		{"partial last window", 901, 300, []int{0, 300, 600, 900}},
		{"shorter than stride", 120, 300, []int{0}},
		{"default stride", 600, 0, []int{0, 300}},
		{"zero duration", 0, 300, nil},
		{"negative duration", -10, 300, nil},
		{"small stride", 5, 2, []int{0, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanWindows(tt.duration, tt.stride)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanWindows(%d, %d) = %v, want %v", tt.duration, tt.stride, got, tt.want)
			}
		})
	}
}

func TestPlanWindowsLongVOD(t *testing.T) {
	got := PlanWindows(9887, DefaultStride)
	if len(got) != 33 {
		t.Fatalf("len = %d, want 33", len(got))
	}
	if got[len(got)-1] != 9600 {
		t.Errorf("last offset = %d, want 9600", got[len(got)-1])
	}
}
