// Package guess extracts a probable title and release year from video
// filenames such as "The.Matrix.1999.1080p.BluRay.x264-GRP.mkv".
package guess

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Guess is the filename-derived search input for metadata lookup.
// Year is zero when the filename carries none.
type Guess struct {
	Title string
	Year  int
}

var (
	// Bracketed years carry explicit intent: (1999) or [1999].
	yearBracketRe  = regexp.MustCompile(`[\(\[]([12]\d{3})[\)\]]`)
	bracketBlockRe = regexp.MustCompile(`\{[^}]*\}|\[[^\]]*\]`)
	yearTokenRe    = regexp.MustCompile(`^[12]\d{3}$`)
	// Episode markers (S01E02, 1x02) end the title like release tags do.
	episodeTokenRe = regexp.MustCompile(`^(?i:s\d{1,2}e\d{1,3}|\d{1,2}x\d{2,3})$`)
)

// junkTokens are release tags that terminate the title portion of a
// filename once the year breakpoint (if any) has been applied.
var junkTokens = buildTokenSet(
	// resolution
	"480p", "576p", "720p", "1080p", "1080i", "2160p", "4k", "uhd",
	// source
	"bluray", "blu-ray", "bdrip", "brrip", "bdremux", "remux", "webrip",
	"web-dl", "webdl", "web", "hdtv", "dvdrip", "dvd", "cam", "telesync",
	"telecine", "hdrip",
	// codec
	"x264", "x265", "h264", "h265", "hevc", "avc", "xvid", "divx", "av1",
	"10bit", "8bit",
	// audio
	"aac", "ac3", "eac3", "dts", "dts-hd", "truehd", "atmos", "flac",
	"opus", "mp3",
	// misc release tags
	"proper", "repack", "rerip", "extended", "unrated", "remastered",
	"internal", "limited", "multi", "dubbed", "subbed", "hdr", "hdr10",
	"dovi", "imax",
)

// FromFilename guesses title and year from a video filename. ok is false
// when nothing usable remains after cleaning.
func FromFilename(filename string) (Guess, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	g := Guess{}
	working := base

	// Bracketed year first, before bracket blocks are treated as junk.
	// The last candidate wins: a title like "1917" or "Blade Runner 2049"
	// can itself look like a year.
	if all := yearBracketRe.FindAllStringSubmatchIndex(working, -1); len(all) > 0 {
		m := all[len(all)-1]
		if year, ok := validYear(working[m[2]:m[3]]); ok {
			g.Year = year
			working = working[:m[0]]
		}
	}

	working = bracketBlockRe.ReplaceAllString(working, " ")
	tokens := strings.Fields(strings.NewReplacer(".", " ", "_", " ").Replace(working))

	if g.Year == 0 {
		for i := len(tokens) - 1; i > 0; i-- {
			if !yearTokenRe.MatchString(tokens[i]) {
				continue
			}
			if year, ok := validYear(tokens[i]); ok {
				g.Year = year
				tokens = tokens[:i]
				break
			}
		}
	}

	var kept []string
	for _, token := range tokens {
		if isJunk(token) || episodeTokenRe.MatchString(token) {
			break
		}
		kept = append(kept, token)
	}

	title := strings.TrimSpace(strings.Join(kept, " "))
	if title == "" {
		return Guess{}, false
	}

	g.Title = title
	return g, true
}

// isJunk also looks at the part before a hyphen so codec-group suffixes
// like "x264-GRP" terminate the title while "Spider-Man" survives.
func isJunk(token string) bool {
	lower := strings.ToLower(token)
	if _, ok := junkTokens[lower]; ok {
		return true
	}
	if head, _, found := strings.Cut(lower, "-"); found {
		if _, ok := junkTokens[head]; ok {
			return true
		}
	}
	return false
}

func validYear(raw string) (int, bool) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if year < 1900 || year > 2100 {
		return 0, false
	}
	return year, true
}

func buildTokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}
