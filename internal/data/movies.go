package data

import (
	"bytes"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mkdrx/rest-api-deploy/internal/validator"
)

// Genres is the vocabulary every entry of Movie.Genre must be drawn from.
var Genres = []string{
	"Action", "Adventure", "Animation", "Biography", "Comedy", "Crime",
	"Drama", "Fantasy", "Horror", "Romance", "Sci-Fi", "Thriller",
}

// Movie is a single record held by the store. ID is assigned by the store on insert and
// is never taken from client input.
type Movie struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	Director string   `json:"director"`
	Duration int      `json:"duration"` // Minutes.
	Poster   string   `json:"poster"`
	Genre    []string `json:"genre"`
	Rate     float64  `json:"rate"`
}

func (m *Movie) clone() *Movie {
	c := *m
	c.Genre = slices.Clone(m.Genre)
	return &c
}

// MoviePatch carries the fields of a partial update. A nil field was not supplied and
// leaves the stored value untouched.
type MoviePatch struct {
	Title    *string
	Year     *int
	Director *string
	Duration *int
	Poster   *string
	Genre    []string
	Rate     *float64
}

func (p MoviePatch) apply(m *Movie) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.Director != nil {
		m.Director = *p.Director
	}
	if p.Duration != nil {
		m.Duration = *p.Duration
	}
	if p.Poster != nil {
		m.Poster = *p.Poster
	}
	if p.Genre != nil {
		m.Genre = slices.Clone(p.Genre)
	}
	if p.Rate != nil {
		m.Rate = *p.Rate
	}
}

type kind int

const (
	kindString kind = iota
	kindInteger
	kindNumber
	kindStringList
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindInteger:
		return "integer"
	case kindNumber:
		return "number"
	default:
		return "array of strings"
	}
}

// field describes one entry of the movie schema: its JSON name, the JSON kind it must
// decode as, and the rule string checked once it has decoded.
type field struct {
	name     string
	kind     kind
	rules    string
	optional bool
	set      func(p *MoviePatch, value any)
}

var movieSchema = []field{
	{
		name: "title", kind: kindString, rules: "required",
		set: func(p *MoviePatch, value any) { s := value.(string); p.Title = &s },
	},
	{
		name: "year", kind: kindInteger, rules: "gte=1900,lte=2100",
		set: func(p *MoviePatch, value any) { n := value.(int); p.Year = &n },
	},
	{
		name: "director", kind: kindString, rules: "required",
		set: func(p *MoviePatch, value any) { s := value.(string); p.Director = &s },
	},
	{
		name: "duration", kind: kindInteger, rules: "gt=0",
		set: func(p *MoviePatch, value any) { n := value.(int); p.Duration = &n },
	},
	{
		name: "poster", kind: kindString, rules: "required,url",
		set: func(p *MoviePatch, value any) { s := value.(string); p.Poster = &s },
	},
	{
		name: "genre", kind: kindStringList, rules: "min=1,dive,oneof=" + strings.Join(Genres, " "),
		set: func(p *MoviePatch, value any) { p.Genre = value.([]string) },
	},
	{
		name: "rate", kind: kindNumber, rules: "gte=0,lte=10", optional: true,
		set: func(p *MoviePatch, value any) { f := value.(float64); p.Rate = &f },
	},
}

// ValidateMovie checks a decoded JSON object holding a complete movie. Every field except
// rate must be present; rate defaults to 0. Failures are recorded in v and the returned
// movie must only be used when v.Valid() is true.
func ValidateMovie(v *validator.Validator, input map[string]json.RawMessage) *Movie {
	patch := evaluate(v, input, false)

	movie := &Movie{Genre: []string{}}
	patch.apply(movie)
	return movie
}

// ValidatePartialMovie checks a decoded JSON object holding any subset of the movie
// fields. An empty object is valid and yields an empty patch.
func ValidatePartialMovie(v *validator.Validator, input map[string]json.RawMessage) MoviePatch {
	return evaluate(v, input, true)
}

func evaluate(v *validator.Validator, input map[string]json.RawMessage, partial bool) MoviePatch {
	var patch MoviePatch

	for _, f := range movieSchema {
		raw, ok := input[f.name]
		if !ok {
			v.Check(partial || f.optional, f.name, "must be provided")
			continue
		}

		value, ok := decode(v, f, raw)
		if !ok {
			continue
		}

		v.CheckRules(f.name, value, f.rules)
		if !v.Has(f.name) {
			f.set(&patch, value)
		}
	}

	var unknown []string
	for name := range input {
		if !slices.ContainsFunc(movieSchema, func(f field) bool { return f.name == name }) {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	for _, name := range unknown {
		v.AddError(name, "unrecognized field")
	}

	return patch
}

// decode converts raw into the Go value for f.kind, recording a type error in v when the
// JSON value has the wrong shape.
func decode(v *validator.Validator, f field, raw json.RawMessage) (any, bool) {
	received := jsonType(raw)
	mismatch := func(got string) (any, bool) {
		v.AddError(f.name, "expected "+f.kind.String()+", received "+got)
		return nil, false
	}

	switch f.kind {
	case kindString:
		if received != "string" {
			return mismatch(received)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return mismatch(received)
		}
		return s, true

	case kindInteger:
		if received != "number" {
			return mismatch(received)
		}
		n, ok := decodeNumber(v, f, raw)
		if !ok {
			return nil, false
		}
		if n != math.Trunc(n) {
			return mismatch("float")
		}
		if math.Abs(n) > math.MaxInt32 {
			v.AddError(f.name, "number is too large")
			return nil, false
		}
		return int(n), true

	case kindNumber:
		if received != "number" {
			return mismatch(received)
		}
		n, ok := decodeNumber(v, f, raw)
		if !ok {
			return nil, false
		}
		return n, true

	case kindStringList:
		if received != "array" {
			return mismatch(received)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return mismatch(received)
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if jsonType(item) != "string" || json.Unmarshal(item, &s) != nil {
				return mismatch("array containing " + jsonType(item))
			}
			list = append(list, s)
		}
		return list, true
	}

	return mismatch(received)
}

// decodeNumber reads a JSON number already known to be well formed. The only way it can
// fail is by falling outside the float64 range.
func decodeNumber(v *validator.Validator, f field, raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil || math.IsInf(n, 0) {
		v.AddError(f.name, "number is too large")
		return 0, false
	}
	return n, true
}

// jsonType names the JSON type of raw from its first significant byte.
func jsonType(raw []byte) string {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return "nothing"
	}

	switch b[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}

// MovieModel is the in-memory record store. Records keep insertion order. All methods
// are safe for concurrent use and hand out copies, never the stored records.
type MovieModel struct {
	mu     sync.RWMutex
	movies []*Movie
}

// NewMovieModel returns a store holding copies of the seed records, in seed order.
func NewMovieModel(seed []*Movie) *MovieModel {
	m := &MovieModel{movies: make([]*Movie, 0, len(seed))}
	for _, movie := range seed {
		m.movies = append(m.movies, movie.clone())
	}
	return m
}

// GetAll returns every record in store order.
func (m *MovieModel) GetAll() []*Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movies := make([]*Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movies = append(movies, movie.clone())
	}
	return movies
}

// FilterByGenre returns, in store order, the records with at least one genre equal to
// genre ignoring case.
func (m *MovieModel) FilterByGenre(genre string) []*Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movies := []*Movie{}
	for _, movie := range m.movies {
		if slices.ContainsFunc(movie.Genre, func(g string) bool { return strings.EqualFold(g, genre) }) {
			movies = append(movies, movie.clone())
		}
	}
	return movies
}

// Get returns the record with the given id, or ErrRecordNotFound.
func (m *MovieModel) Get(id string) (*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	return m.movies[i].clone(), nil
}

// Insert assigns a new random id to movie and appends a copy of it to the store.
func (m *MovieModel) Insert(movie *Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie.ID = uuid.NewString()
	m.movies = append(m.movies, movie.clone())
	return nil
}

// Update merges the supplied patch fields into the record with the given id and returns
// the merged record.
func (m *MovieModel) Update(id string, patch MoviePatch) (*Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}

	merged := m.movies[i].clone()
	patch.apply(merged)
	m.movies[i] = merged
	return merged.clone(), nil
}

// Delete removes the first record with the given id, keeping the order of the rest.
func (m *MovieModel) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return ErrRecordNotFound
	}
	m.movies = slices.Delete(m.movies, i, i+1)
	return nil
}

// Count returns the number of stored records.
func (m *MovieModel) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.movies)
}

// indexOf must be called with m.mu held.
func (m *MovieModel) indexOf(id string) int {
	return slices.IndexFunc(m.movies, func(movie *Movie) bool { return movie.ID == id })
}
