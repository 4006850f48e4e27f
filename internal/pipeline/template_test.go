package pipeline

import "testing"

func TestSubstitute(t *testing.T) {
	ctx := NewContext("hello")
	ctx.Set("name", "weft")

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"known variable", "say {name}", "say weft"},
		{"seeded input", "got: {input}", "got: hello"},
		{"unmatched left verbatim", "keep {unknown} as-is", "keep {unknown} as-is"},
		{"mixed", "{name} and {unknown}", "weft and {unknown}"},
		{"no placeholders", "plain text", "plain text"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ctx.Substitute(tt.template); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestSubstituteIdempotent(t *testing.T) {
	ctx := NewContext("in")
	template := "value {missing} stays"
	once := ctx.Substitute(template)
	twice := ctx.Substitute(once)
	if once != twice {
		t.Errorf("substitution not idempotent: %q then %q", once, twice)
	}
}

func TestEvaluateCondition(t *testing.T) {
	ctx := NewContext("in")
	ctx.Set("present", "value")
	ctx.Set("blank", "   ")
	ctx.Set("empty", "")

	tests := []struct {
		name      string
		condition string
		want      bool
	}{
		{"empty condition always true", "", true},
		{"set variable", "present", true},
		{"unset variable", "nothing", false},
		{"whitespace-only counts as empty", "blank", false},
		{"empty string counts as empty", "empty", false},
		{"negated set variable", "!present", false},
		{"negated unset variable", "!nothing", true},
		{"negated empty variable", "!empty", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ctx.EvaluateCondition(tt.condition); got != tt.want {
				t.Errorf("EvaluateCondition(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}
