package jikan

// listResponse is the envelope for every list endpoint
type listResponse struct {
	Data       []animeDTO  `json:"data"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type animeDTO struct {
	MalID        int        `json:"mal_id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	TitleEnglish string     `json:"title_english"`
	Type         string     `json:"type"`
	Episodes     *int       `json:"episodes"`
	Score        *float64   `json:"score"`
	Synopsis     string     `json:"synopsis"`
	Year         *int       `json:"year"`
	Images       imagesDTO  `json:"images"`
	Aired        airedDTO   `json:"aired"`
	Genres       []namedDTO `json:"genres"`
	Studios      []namedDTO `json:"studios"`
}

type imagesDTO struct {
	JPG imageDTO `json:"jpg"`
}

type imageDTO struct {
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type airedDTO struct {
	String string `json:"string"`
}

type namedDTO struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}
