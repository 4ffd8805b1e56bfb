package models

// Board is the board metadata fetched once per board load
type Board struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Background string   `json:"background"`
	Visibility string   `json:"visibility,omitempty"`
	Labels     []Label  `json:"labels"`
	Members    []Member `json:"members"`
}

// Label is a board-scoped label that can be attached to cards
type Label struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	BoardID string `json:"board_id,omitempty"`
}

// Member is a user with access to the board
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
}

// List is an ordered column of cards
type List struct {
	ID       string  `json:"id"`
	BoardID  string  `json:"board_id"`
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

// GetLabel returns the board label with the given id
func (b *Board) GetLabel(id string) *Label {
	for i := range b.Labels {
		if b.Labels[i].ID == id {
			return &b.Labels[i]
		}
	}
	return nil
}

// GetMember returns the board member with the given id
func (b *Board) GetMember(id string) *Member {
	for i := range b.Members {
		if b.Members[i].ID == id {
			return &b.Members[i]
		}
	}
	return nil
}
