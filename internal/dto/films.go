package dto

// FilmsQuery represents the query string of a film lookup
type FilmsQuery struct {
	StartsWith string `form:"startsWith" binding:"required"`
}

// FilmItem represents a single film in a lookup response
type FilmItem struct {
	FilmID int64  `json:"film_id"`
	Title  string `json:"title"`
}

// FilterInfo echoes the filter that produced a response
type FilterInfo struct {
	StartsWith string `json:"startsWith"`
}

// FilmsResponse represents a film lookup response.
// Count always equals len(Films).
type FilmsResponse struct {
	Films  []FilmItem `json:"films"`
	Count  int        `json:"count"`
	Filter FilterInfo `json:"filter"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
