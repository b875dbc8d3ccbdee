package data

import (
	"errors"
)

// ErrRecordNotFound is returned by the store when no record has the requested id.
var ErrRecordNotFound = errors.New("record not found")

// Models wraps the stores used by the handlers. The handlers only see the interface, so
// tests can build an isolated store per case.
type Models struct {
	Movies interface {
		GetAll() []*Movie
		FilterByGenre(genre string) []*Movie
		Get(id string) (*Movie, error)
		Insert(movie *Movie) error
		Update(id string, patch MoviePatch) (*Movie, error)
		Delete(id string) error
		Count() int
	}
}

// NewModels returns a Models struct whose movie store starts out holding seed.
func NewModels(seed []*Movie) Models {
	return Models{
		Movies: NewMovieModel(seed),
	}
}
