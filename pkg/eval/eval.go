// Package eval scores disambiguations against a ground truth.
package eval

import (
	"net/url"
	"strings"

	"github.com/OFFIS-RIT/ned/pkg/common"
)

const aidaURLPrefix = "http://en.wikipedia.org/wiki/"

// Score counts correct disambiguations among those that could be checked.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Add returns the sum of two scores.
func (s Score) Add(o Score) Score {
	return Score{Correct: s.Correct + o.Correct, Total: s.Total + o.Total}
}

// Percentage is 100*Correct/Total, or 0 when nothing was checked.
func (s Score) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Correct) / float64(s.Total)
}

// Compare checks every produced disambiguation whose mention appears in
// truth. normalize maps a produced title into the form truth uses; nil
// compares titles as they are. Mentions missing from truth are not counted.
func Compare(truth map[string]string, produced common.Disambiguations, normalize func(string) string) Score {
	var s Score
	for mention, title := range produced {
		want, ok := truth[mention]
		if !ok {
			continue
		}
		if normalize != nil {
			title = normalize(title)
		}
		if title == want {
			s.Correct++
		}
		s.Total++
	}
	return s
}

// AidaURL is the form AIDA annotates titles with.
func AidaURL(title string) string {
	return aidaURLPrefix + title
}

// AidaTitle turns an AIDA annotation URL back into an article title,
// decoding percent escapes and underscores. Other strings are returned
// unchanged.
func AidaTitle(u string) string {
	rest, ok := strings.CutPrefix(u, aidaURLPrefix)
	if !ok {
		return u
	}
	if dec, err := url.PathUnescape(rest); err == nil {
		rest = dec
	}
	return strings.ReplaceAll(rest, "_", " ")
}

// AidaTruth converts AIDA annotations to mention -> title.
func AidaTruth(annotations map[string]string) map[string]string {
	out := make(map[string]string, len(annotations))
	for m, u := range annotations {
		out[m] = AidaTitle(u)
	}
	return out
}
