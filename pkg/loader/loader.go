package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/loader/corenlp"

	"github.com/goccy/go-json"
)

type DocumentFormat string

const (
	// DocumentFormatCoreNLP is the JSON output of Stanford CoreNLP with the
	// entitymentions annotator.
	DocumentFormatCoreNLP DocumentFormat = "corenlp"
	// DocumentFormatMentions is a JSON array of mention strings.
	DocumentFormatMentions DocumentFormat = "mentions"
	// DocumentFormatLines is one mention per line.
	DocumentFormatLines DocumentFormat = "lines"
)

// DocumentFile is a stored document whose mentions are read through its
// Loader.
type DocumentFile struct {
	ID       string
	FilePath string
	Format   DocumentFormat
	Loader   DocumentLoader
}

// NewDocumentFileParams defines the input parameters for creating a new
// DocumentFile. An empty Format is derived from the file extension.
type NewDocumentFileParams struct {
	ID       string
	FilePath string
	Format   DocumentFormat
	Loader   DocumentLoader
}

// NewDocumentFile creates a DocumentFile from params.
func NewDocumentFile(params NewDocumentFileParams) DocumentFile {
	format := params.Format
	if format == "" {
		format = DetectFormat(params.FilePath)
	}
	return DocumentFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		Format:   format,
		Loader:   params.Loader,
	}
}

// DetectFormat guesses the format from the file extension. JSON files are
// taken to be CoreNLP output.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DocumentFormatCoreNLP
	default:
		return DocumentFormatLines
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (DocumentFormat, error) {
	switch f := DocumentFormat(s); f {
	case DocumentFormatCoreNLP, DocumentFormatMentions, DocumentFormatLines:
		return f, nil
	}
	return "", fmt.Errorf("unknown document format %q", s)
}

// GetBytes retrieves the raw file content using its Loader.
func (f *DocumentFile) GetBytes(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("document %q has no loader", f.ID)
	}
	return f.Loader.GetFileBytes(ctx, *f)
}

// Mentions loads the file and extracts its entity mentions, without
// repeats and in first-seen order.
//
// Example:
//
//	file := loader.NewDocumentFile(loader.NewDocumentFileParams{
//		ID:       "doc-1",
//		FilePath: "docs/lincoln.json",
//		Loader:   io.NewIODocumentLoader(),
//	})
//	mentions, err := file.Mentions(ctx)
func (f *DocumentFile) Mentions(ctx context.Context) ([]string, error) {
	data, err := f.GetBytes(ctx)
	if err != nil {
		return nil, err
	}
	return ParseMentions(f.Format, data)
}

// ParseMentions extracts mentions from data in the given format.
func ParseMentions(format DocumentFormat, data []byte) ([]string, error) {
	switch format {
	case DocumentFormatCoreNLP:
		return corenlp.ParseEntities(data)
	case DocumentFormatMentions:
		var mentions []string
		if err := json.Unmarshal(data, &mentions); err != nil {
			return nil, fmt.Errorf("failed to decode mention list: %w", err)
		}
		return dropEmpty(common.Dedupe(mentions)), nil
	case DocumentFormatLines:
		var mentions []string
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			mentions = append(mentions, strings.TrimSpace(sc.Text()))
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return dropEmpty(common.Dedupe(mentions)), nil
	}
	return nil, fmt.Errorf("unknown document format %q", format)
}

func dropEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CacheKey identifies a file in loader caches.
func CacheKey(file DocumentFile) string {
	return file.ID + ":" + file.FilePath
}

// DocumentLoader defines the interface for loading the contents of a
// DocumentFile. Implementations may load files from disk, object storage
// or other sources.
type DocumentLoader interface {
	GetFileBytes(ctx context.Context, file DocumentFile) ([]byte, error)
}
