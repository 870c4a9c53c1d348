package writer

import "testing"

func TestMoviePath(t *testing.T) {
	r := NewRenamer("", "")
	got := r.MoviePath("The Matrix", 1999, "1080p")
	want := "The Matrix (1999)/The Matrix (1999) - 1080p.strm"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEpisodePath(t *testing.T) {
	r := NewRenamer("", "")
	got := r.EpisodePath("Breaking Bad", 2008, 2, 5, "720p")
	want := "Breaking Bad (2008)/Season 02/Breaking Bad - S02E05 - 720p.strm"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCustomTemplate(t *testing.T) {
	r := NewRenamer("{quality}/{title}.strm", "")
	got := r.MoviePath("Heat", 1995, "4k")
	if got != "4k/Heat.strm" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestUnknownPlaceholderKept(t *testing.T) {
	r := NewRenamer("{title}/{bogus}.strm", "")
	got := r.MoviePath("Heat", 1995, "4k")
	if got != "Heat/{bogus}.strm" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"The Matrix", "The Matrix"},
		{"Face/Off", "Face Off"},
		{"Alien: Covenant", "Alien Covenant"},
		{"What If...?", "What If"},
		{"..\\..\\etc\\passwd", "etc passwd"},
		{"  spaced  out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
