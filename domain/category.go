package domain

import "time"

// Category labels tasks for filtering and search. Lookup is directory data
// served by the record source; the core never mutates categories.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryName resolves id against a category list, returning "" when absent.
func CategoryName(categories []Category, id string) string {
	if id == "" {
		return ""
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
