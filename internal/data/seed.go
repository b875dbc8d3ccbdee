package data

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mkdrx/rest-api-deploy/internal/validator"
)

//go:embed movies.json
var seedJSON []byte

// LoadSeed decodes and validates the movies bundled with the binary.
func LoadSeed() ([]*Movie, error) {
	return ParseSeed(seedJSON)
}

// ParseSeed decodes a JSON array of movie records. Unlike client input, seed records carry
// their own id; everything else goes through ValidateMovie, so a malformed seed is
// rejected instead of being served.
func ParseSeed(b []byte) ([]*Movie, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	movies := make([]*Movie, 0, len(records))
	ids := make([]string, 0, len(records))

	for i, record := range records {
		var id string
		if raw, ok := record["id"]; ok {
			if err := json.Unmarshal(raw, &id); err != nil {
				return nil, fmt.Errorf("seed movie %d: id: %w", i, err)
			}
		}
		if id == "" {
			return nil, fmt.Errorf("seed movie %d: missing id", i)
		}
		delete(record, "id")

		v := validator.New()
		movie := ValidateMovie(v, record)
		if !v.Valid() {
			return nil, fmt.Errorf("seed movie %d (%s): %v", i, id, v.Errors)
		}
		movie.ID = id

		movies = append(movies, movie)
		ids = append(ids, id)
	}

	if !validator.Unique(ids) {
		return nil, errors.New("seed contains duplicate ids")
	}

	return movies, nil
}
