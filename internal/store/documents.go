package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// TweetRecord is one row of the tweet listing. The listing is displayed as
// a table, so records are kept as loosely typed column/value maps.
type TweetRecord map[string]any

// LoadTweets reads a JSON array of tweet records. A missing, empty or
// malformed file wraps domain.ErrNotFound so callers render a placeholder.
func LoadTweets(path string) ([]TweetRecord, error) {
	data, err := readOptional(path)
	if err != nil {
		return nil, err
	}
	var records []TweetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("tweet listing %s: %w: %w", path, domain.ErrNotFound, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("tweet listing %s is empty: %w", path, domain.ErrNotFound)
	}
	return records, nil
}

// LoadMapDocument reads a pre-rendered HTML map document.
func LoadMapDocument(path string) ([]byte, error) {
	return readOptional(path)
}

// Documents locates the optional inputs shown next to the story.
type Documents struct {
	TweetsPath      string
	MapDocumentPath string
}

// Tweets loads the tweet listing.
func (d Documents) Tweets() ([]TweetRecord, error) { return LoadTweets(d.TweetsPath) }

// MapDocument loads the pre-rendered map document.
func (d Documents) MapDocument() ([]byte, error) { return LoadMapDocument(d.MapDocumentPath) }

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, domain.ErrNotFound)
	}
	return data, nil
}
