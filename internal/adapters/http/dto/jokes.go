package dto

import (
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// FilterRequest is the optional filter on list, page and table routes. Any
// text is accepted; a query nothing contains yields an empty view.
type FilterRequest struct {
	Query *string `form:"q" json:"q"`
}

// RefreshRequest asks for a fresh batch of jokes. Zero means the default.
type RefreshRequest struct {
	Count int `form:"count" json:"count" validate:"omitempty,min=1"`
}

// JokeResponse is a joke on the wire.
type JokeResponse struct {
	ID         string   `json:"id"`
	Value      string   `json:"value"`
	Categories []string `json:"categories"`
	IconURL    string   `json:"iconUrl,omitempty"`
	URL        string   `json:"url,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

// JokesResponse is the filtered view of a session's store.
type JokesResponse struct {
	Query  string         `json:"query"`
	Status string         `json:"status"`
	Total  int            `json:"total"`
	Count  int            `json:"count"`
	Jokes  []JokeResponse `json:"jokes"`
	Error  string         `json:"error,omitempty"`
}

// NewJokeResponse converts a domain joke.
func NewJokeResponse(j *domain.Joke) JokeResponse {
	categories := j.Categories
	if categories == nil {
		categories = []string{}
	}

	return JokeResponse{
		ID:         j.ID,
		Value:      j.Value,
		Categories: categories,
		IconURL:    j.IconURL,
		URL:        j.URL,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

// NewJokesResponse converts a store snapshot.
func NewJokesResponse(snap app.Snapshot) JokesResponse {
	jokes := make([]JokeResponse, 0, len(snap.Filtered))
	for i := range snap.Filtered {
		jokes = append(jokes, NewJokeResponse(&snap.Filtered[i]))
	}

	resp := JokesResponse{
		Query:  snap.Query,
		Status: string(snap.Status),
		Total:  len(snap.Jokes),
		Count:  len(jokes),
		Jokes:  jokes,
	}

	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}

	return resp
}
