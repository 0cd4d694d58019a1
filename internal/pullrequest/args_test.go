package pullrequest

import (
	"testing"

	"github.com/alekspetrov/robota/internal/command"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Args
	}{
		{"empty", nil, Args{}},
		{"positional message", []string{"fix typo"}, Args{Message: "fix typo"}},
		{"positional ready", []string{"fix typo", "ready"}, Args{Message: "fix typo", Ready: true}},
		{"ready only", []string{"ready"}, Args{Ready: true}},
		{"flags", []string{"-m", "fix typo", "-r"}, Args{Message: "fix typo", Ready: true}},
		{"long flags", []string{"--message=fix typo", "--no-tracker"}, Args{Message: "fix typo", NoTracker: true}},
		{"positional no-tracker", []string{"bump", "no-tracker"}, Args{Message: "bump", NoTracker: true}},
		{"combined short flags", []string{"-rn", "-m", "x"}, Args{Message: "x", Ready: true, NoTracker: true}},
		{"unquoted words join", []string{"fix", "the", "typo"}, Args{Message: "fix the typo"}},
		{"flag and words", []string{"-m", "first", "second"}, Args{Message: "first second"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("ParseArgs(%q) error: %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("ParseArgs(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, args := range [][]string{{"--bogus"}, {"-m"}, {"--help"}} {
		_, err := ParseArgs(args)
		if err == nil {
			t.Errorf("ParseArgs(%q) expected an error", args)
			continue
		}
		if !command.IsExpected(err) {
			t.Errorf("ParseArgs(%q) error %v should be expected", args, err)
		}
	}
}
