package release

import "testing"

func TestQuality_Rank(t *testing.T) {
	ordered := []Quality{QualityUnknown, Quality480p, Quality720p, Quality1080p, Quality4K}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("Rank(%s) = %d not below Rank(%s) = %d",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in   string
		want Quality
	}{
		{"1080p", Quality1080p},
		{"1080", Quality1080p},
		{"fhd", Quality1080p},
		{"720P", Quality720p},
		{" 4k ", Quality4K},
		{"2160p", Quality4K},
		{"uhd", Quality4K},
		{"480p", Quality480p},
		{"sd", Quality480p},
		{"", QualityUnknown},
		{"potato", QualityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseQuality(tt.in); got != tt.want {
				t.Errorf("ParseQuality(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectQuality(t *testing.T) {
	tests := []struct {
		name  string
		label string
		title string
		want  Quality
	}{
		{"plain 1080p", "Movie.2023.1080p.WEB-DL", "", Quality1080p},
		{"4k beats 1080p remux label", "Movie 4K 1080p REMUX", "", Quality4K},
		{"2160p", "Movie.2023.2160p.UHD.BluRay", "", Quality4K},
		{"from title", "torrentio", "Movie 720p", Quality720p},
		{"hdtv counts as 720p", "Show.S01E01.HDTV", "", Quality720p},
		{"nothing", "Movie", "", QualityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectQuality(tt.label, tt.title); got != tt.want {
				t.Errorf("DetectQuality(%q, %q) = %q, want %q", tt.label, tt.title, got, tt.want)
			}
		})
	}
}
