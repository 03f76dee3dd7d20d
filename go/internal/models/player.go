package models

// Participant is one seat in a draft session.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Wins is the historical win count read when the session was formed.
	Wins int `json:"wins"`
}

// Item is one selectable entry of the catalog.
type Item struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// ItemNames returns the names of items in order.
func ItemNames(items []Item) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}
