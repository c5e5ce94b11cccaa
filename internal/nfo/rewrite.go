package nfo

import (
	"regexp"
	"strings"
	"time"

	"nfodate/internal/services"
)

const releaseDateLayout = "2006-01-02"

var (
	titlePattern       = tagPattern("title")
	dateAddedPattern   = tagPattern("dateadded")
	releaseDatePattern = tagPattern("releasedate")
	premieredPattern   = tagPattern("premiered")
	mpaaPattern        = tagPattern("mpaa")
)

func tagPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + name + `>(.*?)</` + name + `>`)
}

// Options controls how sidecar text is rewritten.
type Options struct {
	// FixedTime is appended to the release date ("13:52:00").
	FixedTime string
	// DefaultAdded seeds the dateadded tag inserted after <title>.
	DefaultAdded string
	// RatingMap maps mpaa values to their replacement. Nil disables remapping.
	RatingMap map[string]string
}

// Edit summarizes what Rewrite changed.
type Edit struct {
	ReleaseDate     string
	DateSource      string
	DateAdded       string
	Inserted        bool
	DuplicatesFound int
	RatingsRemapped int
	Changed         bool
}

// Rewrite applies the dateadded and rating edits to content. It returns the
// rewritten text, or an error tagged ErrMissingAnchor or ErrMissingReleaseDate
// when the sidecar cannot be processed. Content is never partially edited.
func Rewrite(content string, opts Options) (string, Edit, error) {
	var edit Edit
	text := content

	if !dateAddedPattern.MatchString(text) {
		loc := titlePattern.FindStringIndex(text)
		if loc == nil {
			return content, edit, services.Wrap(services.ErrMissingAnchor, "nfo", "rewrite", "neither <dateadded> nor <title> found", nil)
		}
		insert := "\n  <dateadded>" + opts.DefaultAdded + "</dateadded>"
		text = text[:loc[1]] + insert + text[loc[1]:]
		edit.Inserted = true
	}

	token, source, err := releaseDate(text)
	if err != nil {
		return content, edit, err
	}
	edit.ReleaseDate = token
	edit.DateSource = source
	edit.DateAdded = token + " " + opts.FixedTime

	text, edit.DuplicatesFound = setDateAdded(text, edit.DateAdded)

	if len(opts.RatingMap) > 0 {
		text = mpaaPattern.ReplaceAllStringFunc(text, func(tag string) string {
			value := strings.TrimSpace(mpaaPattern.FindStringSubmatch(tag)[1])
			target, ok := opts.RatingMap[value]
			if !ok || target == value {
				return tag
			}
			edit.RatingsRemapped++
			return "<mpaa>" + target + "</mpaa>"
		})
	}

	edit.Changed = text != content
	return text, edit, nil
}

// releaseDate returns the first whitespace token of <releasedate>, falling
// back to <premiered> when the former is missing or blank.
func releaseDate(text string) (string, string, error) {
	for _, candidate := range []struct {
		name    string
		pattern *regexp.Regexp
	}{
		{"releasedate", releaseDatePattern},
		{"premiered", premieredPattern},
	} {
		m := candidate.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		fields := strings.Fields(m[1])
		if len(fields) == 0 {
			continue
		}
		token := fields[0]
		if _, err := time.Parse(releaseDateLayout, token); err != nil {
			return "", candidate.name, services.Wrap(services.ErrInvalidReleaseDate, "nfo", "release date", "<"+candidate.name+"> value "+token, err)
		}
		return token, candidate.name, nil
	}
	return "", "", services.Wrap(services.ErrMissingReleaseDate, "nfo", "release date", "neither <releasedate> nor <premiered> found", nil)
}

// setDateAdded overwrites the first <dateadded> value and removes any later
// <dateadded> tags together with the indentation and line break leading to
// them. It returns the number of tags removed.
func setDateAdded(text, value string) (string, int) {
	locs := dateAddedPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for i, loc := range locs {
		start, end := loc[0], loc[1]
		if i == 0 {
			b.WriteString(text[prev:start])
			b.WriteString("<dateadded>" + value + "</dateadded>")
			prev = end
			continue
		}
		b.WriteString(text[prev:trimLeadingBreak(text, prev, start)])
		prev = end
	}
	b.WriteString(text[prev:])
	return b.String(), len(locs) - 1
}

// trimLeadingBreak walks back from start over spaces/tabs and a single line
// break, never crossing floor.
func trimLeadingBreak(text string, floor, start int) int {
	i := start
	for i > floor && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	if i > floor && text[i-1] == '\n' {
		i--
		if i > floor && text[i-1] == '\r' {
			i--
		}
		return i
	}
	return start
}
