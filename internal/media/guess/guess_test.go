package guess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename  string
		wantTitle string
		wantYear  int
	}{
		{"The.Matrix.1999.1080p.BluRay.x264-GRP.mkv", "The Matrix", 1999},
		{"The Matrix (1999).mkv", "The Matrix", 1999},
		{"Spirited Away [2001] [1080p].mp4", "Spirited Away", 2001},
		{"Inception_2010_720p.avi", "Inception", 2010},
		{"Interstellar.mkv", "Interstellar", 0},
		{"Some Movie 1080p WEB-DL.mp4", "Some Movie", 0},
		{"Blade.Runner.2049.2017.2160p.mkv", "Blade Runner 2049", 2017},
		{"2012.mkv", "2012", 0},
		{"My.Home.Video.mov", "My Home Video", 0},
		{"Arrival.2016.PROPER.1080p.BluRay.mkv", "Arrival", 2016},
		{"Show.Name.S01E02.1080p.mkv", "Show Name", 0},
		{"Breaking.Point.2x05.720p.HDTV.mkv", "Breaking Point", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			got, ok := FromFilename(tt.filename)
			require.True(t, ok)
			require.Equal(t, tt.wantTitle, got.Title)
			require.Equal(t, tt.wantYear, got.Year)
		})
	}
}

func TestFromFilenameUnusable(t *testing.T) {
	t.Parallel()

	for _, filename := range []string{"(1999).mkv", "[1080p].mkv", "...mkv"} {
		filename := filename
		t.Run(filename, func(t *testing.T) {
			t.Parallel()

			_, ok := FromFilename(filename)
			require.False(t, ok)
		})
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"The Matrix", "the matrix"},
		{"Léon: The Professional", "leon the professional"},
		{"Fast & Furious", "fast and furious"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"  Extra   Spaces  ", "extra spaces"},
		{"Amélie", "amelie"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, Fold(tt.input))
		})
	}
}
