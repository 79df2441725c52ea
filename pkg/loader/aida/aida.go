// Package aida reads the AIDA CoNLL-YAGO annotation TSV.
package aida

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docStart = "-DOCSTART-"

var docNamePattern = regexp.MustCompile(`\((.*)\)`)

// Document is one annotated AIDA document. Annotations maps a mention to
// the Wikipedia URL of its first annotation; Mentions lists the annotated
// mentions in order of appearance.
type Document struct {
	Name        string
	Mentions    []string
	Annotations map[string]string
}

// ParseAnnotations reads all documents. A "-DOCSTART- (name)" row starts a
// document and every five-column row adds one annotation to it; other rows
// are ignored.
func ParseAnnotations(r io.Reader) ([]Document, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		docs []Document
		cur  *Document
	)
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		switch len(row) {
		case 1:
			if !strings.Contains(row[0], docStart) {
				continue
			}
			m := docNamePattern.FindStringSubmatch(row[0])
			if m == nil {
				return nil, fmt.Errorf("line %d: document start without name", line)
			}
			docs = append(docs, Document{Name: m[1], Annotations: make(map[string]string)})
			cur = &docs[len(docs)-1]
		case 5:
			if cur == nil {
				return nil, fmt.Errorf("line %d: annotation before first %s", line, docStart)
			}
			mention, url := row[1], row[2]
			if _, ok := cur.Annotations[mention]; ok {
				continue
			}
			cur.Annotations[mention] = url
			cur.Mentions = append(cur.Mentions, mention)
		}
	}
	return docs, nil
}
