package models

// LabelRef is a label attached to a card
type LabelRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ChecklistItem is a single entry of a checklist
type ChecklistItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Completed bool    `json:"completed"`
	Position  float64 `json:"position"`
}

// Checklist is owned by exactly one card
type Checklist struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

// Card is a kanban card. ListID is mutable; reassigning it moves the card
// between lists.
type Card struct {
	ID          string      `json:"id"`
	BoardID     string      `json:"board_id"`
	ListID      string      `json:"list_id"`
	Title       string      `json:"title"`
	Position    float64     `json:"position"`
	Completed   bool        `json:"completed"`
	Cover       string      `json:"cover"`
	CoverSize   string      `json:"cover_size"`
	Labels      []LabelRef  `json:"labels"`
	MemberIDs   []string    `json:"member_ids"`
	Description string      `json:"description,omitempty"`
	Checklists  []Checklist `json:"checklist,omitempty"`
}

// CardPatch is a shallow partial update of a card. Nil fields are left alone.
type CardPatch struct {
	Title       *string
	Completed   *bool
	Cover       *string
	CoverSize   *string
	Description *string
	Labels      []LabelRef
	MemberIDs   []string
	Checklists  []Checklist
	SetLabels   bool
	SetMembers  bool
	SetLists    bool
}

// HasLabel returns true if the card carries the label
func (c Card) HasLabel(id string) bool {
	for _, l := range c.Labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

// HasMember returns true if the user is assigned to the card
func (c Card) HasMember(id string) bool {
	for _, m := range c.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// ChecklistProgress returns the number of completed and total checklist items
func (c Card) ChecklistProgress() (done, total int) {
	for _, cl := range c.Checklists {
		for _, item := range cl.Items {
			total++
			if item.Completed {
				done++
			}
		}
	}
	return done, total
}

// Apply returns a copy of the card with the patch merged in
func (p CardPatch) Apply(c Card) Card {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Completed != nil {
		c.Completed = *p.Completed
	}
	if p.Cover != nil {
		c.Cover = *p.Cover
	}
	if p.CoverSize != nil {
		c.CoverSize = *p.CoverSize
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.SetLabels {
		c.Labels = append([]LabelRef(nil), p.Labels...)
	}
	if p.SetMembers {
		c.MemberIDs = append([]string(nil), p.MemberIDs...)
	}
	if p.SetLists {
		c.Checklists = cloneChecklists(p.Checklists)
	}
	return c
}

// Revert builds the patch that undoes p when applied to the result of p.Apply(c)
func (p CardPatch) Revert(c Card) CardPatch {
	var r CardPatch
	if p.Title != nil {
		r.Title = &c.Title
	}
	if p.Completed != nil {
		r.Completed = &c.Completed
	}
	if p.Cover != nil {
		r.Cover = &c.Cover
	}
	if p.CoverSize != nil {
		r.CoverSize = &c.CoverSize
	}
	if p.Description != nil {
		r.Description = &c.Description
	}
	if p.SetLabels {
		r.SetLabels = true
		r.Labels = append([]LabelRef(nil), c.Labels...)
	}
	if p.SetMembers {
		r.SetMembers = true
		r.MemberIDs = append([]string(nil), c.MemberIDs...)
	}
	if p.SetLists {
		r.SetLists = true
		r.Checklists = cloneChecklists(c.Checklists)
	}
	return r
}

// Clone returns a deep copy of the card
func (c Card) Clone() Card {
	if c.Labels != nil {
		c.Labels = append(make([]LabelRef, 0, len(c.Labels)), c.Labels...)
	}
	if c.MemberIDs != nil {
		c.MemberIDs = append(make([]string, 0, len(c.MemberIDs)), c.MemberIDs...)
	}
	c.Checklists = cloneChecklists(c.Checklists)
	return c
}

func cloneChecklists(in []Checklist) []Checklist {
	if in == nil {
		return nil
	}
	out := make([]Checklist, len(in))
	for i, cl := range in {
		out[i] = Checklist{
			ID:    cl.ID,
			Title: cl.Title,
			Items: append([]ChecklistItem(nil), cl.Items...),
		}
	}
	return out
}

// StringPtr and BoolPtr build patch fields
func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }
