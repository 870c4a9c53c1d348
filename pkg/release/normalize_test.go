package release

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "The Matrix", "matrix"},
		{"leading article a", "A Beautiful Mind", "beautiful mind"},
		{"leading article an", "An American Werewolf", "american werewolf"},
		{"accents", "Amélie", "amelie"},
		{"subtitle article", "Léon: The Professional", "leon professional"},
		{"ampersand", "Fast & Furious", "fast and furious"},
		{"hyphen", "Spider-Man", "spider man"},
		{"apostrophe", "Don't Look Up", "dont look up"},
		{"dots", "A.Beautiful.Mind", "beautiful mind"},
		{"whitespace collapse", "  The   Matrix  ", "matrix"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.in); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTitleArticleOnlyAtStart(t *testing.T) {
	// Articles inside the title are preserved.
	if got := CleanTitle("Gone with the Wind"); got != "gone with the wind" {
		t.Errorf("CleanTitle = %q, want %q", got, "gone with the wind")
	}
}
