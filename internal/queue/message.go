package queue

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/ned/pkg/loader"

	"github.com/goccy/go-json"
)

// DisambiguateMsg asks a worker to process one stored document. FileKey
// names the uploaded source in object storage; when it is empty the
// mentions stored with the document are used.
type DisambiguateMsg struct {
	DocumentID string                `json:"document_id"`
	FileKey    string                `json:"file_key,omitempty"`
	Format     loader.DocumentFormat `json:"format,omitempty"`
}

func EncodeMessage(msg DisambiguateMsg) ([]byte, error) {
	if msg.DocumentID == "" {
		return nil, errors.New("message has no document id")
	}
	return json.Marshal(msg)
}

func DecodeMessage(body []byte) (DisambiguateMsg, error) {
	var msg DisambiguateMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.DocumentID == "" {
		return msg, errors.New("message has no document id")
	}
	if msg.Format != "" {
		if _, err := loader.ParseFormat(string(msg.Format)); err != nil {
			return msg, err
		}
	}
	return msg, nil
}
