package release

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Parsed
	}{
		{
			"movie with year and quality",
			"The.Matrix.1999.1080p.BluRay.x264-GROUP.magnet",
			Parsed{Title: "The Matrix", Year: 1999, Quality: Quality1080p, Kind: KindMovie},
		},
		{
			"episode",
			"Some.Show.S01E04.720p.WEB-DL.x265.magnet",
			Parsed{Title: "Some Show", Season: 1, Episode: 4, Quality: Quality720p, Kind: KindShow},
		},
		{
			"episode with NxM numbering",
			"Some.Show.3x07.HDTV.torrent",
			Parsed{Title: "Some Show", Season: 3, Episode: 7, Quality: Quality720p, Kind: KindShow},
		},
		{
			"season pack",
			"Breaking.Bad.S02.COMPLETE.720p.WEB-DL.magnet",
			Parsed{Title: "Breaking Bad", Season: 2, Quality: Quality720p, Kind: KindShow},
		},
		{
			"year as title",
			"1917.2019.2160p.WEB-DL.magnet",
			Parsed{Title: "1917", Year: 2019, Quality: Quality4K, Kind: KindMovie},
		},
		{
			"imdb id in name",
			"The.Matrix.1999.tt0133093.1080p.magnet",
			Parsed{Title: "The Matrix", Year: 1999, IMDbID: "tt0133093", Quality: Quality1080p, Kind: KindMovie},
		},
		{
			"no quality marker",
			"Old.Movie.1954.magnet",
			Parsed{Title: "Old Movie", Year: 1954, Quality: QualityUnknown, Kind: KindMovie},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if got.Title != tt.want.Title {
				t.Errorf("Title = %q, want %q", got.Title, tt.want.Title)
			}
			if got.Year != tt.want.Year {
				t.Errorf("Year = %d, want %d", got.Year, tt.want.Year)
			}
			if got.Season != tt.want.Season {
				t.Errorf("Season = %d, want %d", got.Season, tt.want.Season)
			}
			if got.Episode != tt.want.Episode {
				t.Errorf("Episode = %d, want %d", got.Episode, tt.want.Episode)
			}
			if got.Quality != tt.want.Quality {
				t.Errorf("Quality = %q, want %q", got.Quality, tt.want.Quality)
			}
			if got.IMDbID != tt.want.IMDbID {
				t.Errorf("IMDbID = %q, want %q", got.IMDbID, tt.want.IMDbID)
			}
			if got.Kind != tt.want.Kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.want.Kind)
			}
		})
	}
}

func TestParseEpisodeDecidesShow(t *testing.T) {
	// An SxxEyy marker wins over movie classification even when a year is
	// present in the name.
	p := Parse("Some.Show.2019.S01E01.1080p.magnet")
	if p.Kind != KindShow {
		t.Errorf("Kind = %q, want %q", p.Kind, KindShow)
	}
	if p.Year != 2019 {
		t.Errorf("Year = %d, want 2019", p.Year)
	}
}
