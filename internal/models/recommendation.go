package models

// RecommendationItem is one title suggested by the model.
type RecommendationItem struct {
	Title string `json:"title"`
	Kind  string `json:"type"`
}

// Recommendations is the structured payload extracted from a model reply.
type Recommendations struct {
	ListName string               `json:"list_name"`
	Items    []RecommendationItem `json:"recommendations"`
}

// ResolvedItem is a recommendation matched to a catalog entry.
type ResolvedItem struct {
	Title     string
	MediaType string // catalog media type: "movie" or "tv"
	MediaID   int
}
