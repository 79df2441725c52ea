// Package corenlp reads entity mentions from Stanford CoreNLP JSON output.
package corenlp

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EntityTypes are the NER classes kept as mentions.
var EntityTypes = map[string]bool{
	"PERSON":       true,
	"NATIONALITY":  true,
	"ORGANIZATION": true,
	"LOCATION":     true,
}

type EntityMention struct {
	Text string `json:"text"`
	NER  string `json:"ner"`
}

type Sentence struct {
	EntityMentions []EntityMention `json:"entitymentions"`
}

type Document struct {
	Sentences []Sentence `json:"sentences"`
}

// ParseEntities returns the text of every entity mention whose NER class is
// in EntityTypes, without repeats and in document order.
func ParseEntities(data []byte) ([]string, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode CoreNLP output: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, s := range doc.Sentences {
		for _, m := range s.EntityMentions {
			if !EntityTypes[m.NER] || m.Text == "" {
				continue
			}
			if _, ok := seen[m.Text]; ok {
				continue
			}
			seen[m.Text] = struct{}{}
			out = append(out, m.Text)
		}
	}
	return out, nil
}
