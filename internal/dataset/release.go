package dataset

import (
	"path"
	"regexp"
	"time"
)

// Unparsed is reported when a release URL carries no recognizable date.
const Unparsed = "could not parse"

var releaseName = regexp.MustCompile(`^dataset-(\d{4}-\d{2}-\d{2})-`)

// ParseReleaseDate extracts YYYY-MM-DD from a release URL such as
// ".../dataset-2021-03-04-fff81e8.zip".
func ParseReleaseDate(url string) string {
	m := releaseName.FindStringSubmatch(path.Base(url))
	if m == nil {
		return Unparsed
	}
	if _, err := time.Parse(time.DateOnly, m[1]); err != nil {
		return Unparsed
	}
	return m[1]
}
