package relay

import "testing"

func TestCompose(t *testing.T) {
	got := Compose("hello", "X")
	want := "hello*&() Use this extra information to provide better context and details: X"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestCompose_NoExtra(t *testing.T) {
	if got := Compose("hello", ""); got != "hello" {
		t.Errorf("Compose() = %q, want %q", got, "hello")
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"with context", Compose("hello", "some context"), "hello"},
		{"no delimiter", "plain message", "plain message"},
		{"delimiter only", "*&()", ""},
		{"first occurrence wins", "a*&()b*&()c", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
