// Package apitest runs an in-memory board API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"nexus/internal/kanban/models"
)

// Prefix is the API version prefix the server is mounted under.
const Prefix = "/api/v1"

// Call records one request seen by the server.
type Call struct {
	Method    string
	Path      string
	Body      map[string]any
	RequestID string
	Auth      string
}

type board struct {
	meta  models.Board
	lists map[string]models.List
	cards map[string]models.Card
}

// Server is a fake board backend routed with echo.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	boards   map[string]*board
	calls    []Call
	failures []failure
	delay    time.Duration
}

type failure struct {
	method string
	// match is a substring of the request path; empty matches everything.
	match  string
	status int
}

type response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{boards: map[string]*board{}}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.record)

	e.POST(Prefix+"/boards/create", s.createBoard)

	g := e.Group(Prefix + "/boards/:board")
	g.GET("/metadata", s.getMetadata)
	g.GET("/details", s.getDetails)
	g.POST("/lists/create", s.createList)
	g.PUT("/lists/:list/update", s.updateList)
	g.POST("/lists/:list/cards/create", s.createCard)
	g.PUT("/lists/:list/cards/:card/update", s.updateCard)
	g.POST("/labels/create", s.createLabel)
	g.POST("/cards/:card/labels/:label/toggle", s.toggleLabel)
	g.POST("/cards/:card/members/:user/toggle", s.toggleMember)
	g.POST("/cards/:card/checklists/create", s.createChecklist)
	g.POST("/checklists/:checklist/items/create", s.createItem)
	g.PUT("/checklists/:checklist/items/:item/update", s.updateItem)
	g.DELETE("/checklists/:checklist/items/:item/delete", s.deleteItem)

	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to api.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + Prefix
}

// AddBoard seeds a board.
func (s *Server) AddBoard(meta models.Board, lists []models.List, cards []models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &board{meta: meta, lists: map[string]models.List{}, cards: map[string]models.Card{}}
	for _, l := range lists {
		l.BoardID = meta.ID
		b.lists[l.ID] = l
	}
	for _, c := range cards {
		c.BoardID = meta.ID
		b.cards[c.ID] = c.Clone()
	}
	s.boards[meta.ID] = b
}

// Fail makes the next request with method whose path contains match answer
// with status. Queued failures are consumed in order.
func (s *Server) Fail(method, match string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, match: match, status: status})
}

// SetDelay stalls every request, to exercise client timeouts.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Calls returns the requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded requests with method whose path contains match.
func (s *Server) CallsTo(method, match string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && strings.Contains(c.Path, match) {
			out = append(out, c)
		}
	}
	return out
}

// Card returns the server's copy of a card.
func (s *Server) Card(boardID, cardID string) (models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return models.Card{}, false
	}
	c, ok := b.cards[cardID]
	return c.Clone(), ok
}

// List returns the server's copy of a list.
func (s *Server) List(boardID, listID string) (models.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return models.List{}, false
	}
	l, ok := b.lists[listID]
	return l, ok
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		call := Call{
			Method:    req.Method,
			Path:      strings.TrimPrefix(req.URL.Path, Prefix),
			RequestID: req.Header.Get("X-Request-ID"),
			Auth:      req.Header.Get("Authorization"),
		}
		if req.Body != nil {
			raw, _ := io.ReadAll(req.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &call.Body)
			}
			req.Body = io.NopCloser(strings.NewReader(string(raw)))
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		delay := s.delay
		status := 0
		for i, f := range s.failures {
			if f.method == req.Method && strings.Contains(call.Path, f.match) {
				status = f.status
				s.failures = append(s.failures[:i:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return nil
			}
		}
		if status != 0 {
			return c.JSON(status, response{Status: status, Message: http.StatusText(status)})
		}
		return next(c)
	}
}

func ok(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, response{Status: http.StatusOK, Message: message, Data: data})
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, response{Status: http.StatusNotFound, Message: what + " not found"})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, response{Status: http.StatusBadRequest, Message: err.Error()})
}

// lookup locks the server and returns the board of the request. Callers
// must unlock.
func (s *Server) lookup(c echo.Context) (*board, bool) {
	s.mu.Lock()
	b, found := s.boards[c.Param("board")]
	return b, found
}

func (s *Server) getMetadata(c echo.Context) error {
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	return ok(c, "board metadata", b.meta)
}

func (s *Server) getDetails(c echo.Context) error {
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	lists := make([]models.List, 0, len(b.lists))
	for _, l := range b.lists {
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
	cards := make([]models.Card, 0, len(b.cards))
	for _, card := range b.cards {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return ok(c, "board details", map[string]any{"id": b.meta.ID, "lists": lists, "cards": cards})
}

func (s *Server) createBoard(c echo.Context) error {
	var body struct {
		Name       string `json:"name"`
		Background string `json:"background"`
		Visibility string `json:"visibility"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	if body.Name == "" || body.Background == "" {
		return c.JSON(http.StatusUnprocessableEntity, response{Status: http.StatusUnprocessableEntity, Message: "name and background are required"})
	}
	if body.Visibility == "" {
		body.Visibility = "private"
	}
	meta := models.Board{ID: uuid.NewString(), Name: body.Name, Background: body.Background, Visibility: body.Visibility}
	s.mu.Lock()
	s.boards[meta.ID] = &board{meta: meta, lists: map[string]models.List{}, cards: map[string]models.Card{}}
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, response{Status: http.StatusCreated, Message: "board created", Data: meta})
}

// Board returns the server's copy of a board's metadata.
func (s *Server) Board(boardID string) (models.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.boards[boardID]
	if !found {
		return models.Board{}, false
	}
	return b.meta, true
}

func (s *Server) createList(c echo.Context) error {
	var body struct {
		Name     string  `json:"name"`
		Position float64 `json:"position"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	l := models.List{ID: uuid.NewString(), BoardID: b.meta.ID, Name: body.Name, Position: body.Position}
	b.lists[l.ID] = l
	return ok(c, "list created", l)
}

func (s *Server) updateList(c echo.Context) error {
	var body struct {
		Name     *string  `json:"name"`
		Position *float64 `json:"position"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	l, found := b.lists[c.Param("list")]
	if !found {
		return notFound(c, "list")
	}
	if body.Name != nil {
		l.Name = *body.Name
	}
	if body.Position != nil {
		l.Position = *body.Position
	}
	b.lists[l.ID] = l
	return ok(c, "list updated", nil)
}

func (s *Server) createCard(c echo.Context) error {
	var body struct {
		Title    string  `json:"title"`
		Position float64 `json:"position"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	if _, found := b.lists[c.Param("list")]; !found {
		return notFound(c, "list")
	}
	card := models.Card{ID: uuid.NewString(), BoardID: b.meta.ID, ListID: c.Param("list"), Title: body.Title, Position: body.Position}
	b.cards[card.ID] = card
	return ok(c, "card created", card)
}

func (s *Server) updateCard(c echo.Context) error {
	var body struct {
		Title       *string  `json:"title"`
		Completed   *bool    `json:"completed"`
		Cover       *string  `json:"cover"`
		CoverSize   *string  `json:"cover_size"`
		Description *string  `json:"description"`
		Position    *float64 `json:"position"`
		ListID      *string  `json:"list_id"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, found := b.cards[c.Param("card")]
	if !found || card.ListID != c.Param("list") {
		return notFound(c, "card")
	}
	patch := models.CardPatch{
		Title:       body.Title,
		Completed:   body.Completed,
		Cover:       body.Cover,
		CoverSize:   body.CoverSize,
		Description: body.Description,
	}
	card = patch.Apply(card)
	if body.Position != nil {
		card.Position = *body.Position
	}
	if body.ListID != nil {
		if _, found := b.lists[*body.ListID]; !found {
			return notFound(c, "list")
		}
		card.ListID = *body.ListID
	}
	b.cards[card.ID] = card
	return ok(c, "card updated", nil)
}

func (s *Server) createLabel(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	label := models.Label{ID: uuid.NewString(), Name: body.Name, Color: body.Color, BoardID: b.meta.ID}
	b.meta.Labels = append(b.meta.Labels, label)
	return ok(c, "label created", label)
}

func (s *Server) toggleLabel(c echo.Context) error {
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, found := b.cards[c.Param("card")]
	if !found {
		return notFound(c, "card")
	}
	label := b.meta.GetLabel(c.Param("label"))
	if label == nil {
		return notFound(c, "label")
	}
	if card.HasLabel(label.ID) {
		kept := card.Labels[:0:0]
		for _, l := range card.Labels {
			if l.ID != label.ID {
				kept = append(kept, l)
			}
		}
		card.Labels = kept
	} else {
		card.Labels = append(card.Labels, models.LabelRef{ID: label.ID, Name: label.Name, Color: label.Color})
	}
	b.cards[card.ID] = card
	return ok(c, "label toggled", nil)
}

func (s *Server) toggleMember(c echo.Context) error {
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, found := b.cards[c.Param("card")]
	if !found {
		return notFound(c, "card")
	}
	user := c.Param("user")
	if card.HasMember(user) {
		kept := card.MemberIDs[:0:0]
		for _, id := range card.MemberIDs {
			if id != user {
				kept = append(kept, id)
			}
		}
		card.MemberIDs = kept
	} else {
		card.MemberIDs = append(card.MemberIDs, user)
	}
	b.cards[card.ID] = card
	return ok(c, "member toggled", nil)
}

func (s *Server) createChecklist(c echo.Context) error {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, found := b.cards[c.Param("card")]
	if !found {
		return notFound(c, "card")
	}
	cl := models.Checklist{ID: uuid.NewString(), Title: body.Title}
	card.Checklists = append(card.Checklists, cl)
	b.cards[card.ID] = card
	return ok(c, "checklist created", cl)
}

// findChecklist returns the card owning a checklist and the checklist index.
func findChecklist(b *board, checklistID string) (models.Card, int, bool) {
	for _, card := range b.cards {
		for i, cl := range card.Checklists {
			if cl.ID == checklistID {
				return card, i, true
			}
		}
	}
	return models.Card{}, 0, false
}

func (s *Server) createItem(c echo.Context) error {
	var body struct {
		Name     *string  `json:"name"`
		Position *float64 `json:"position"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, idx, found := findChecklist(b, c.Param("checklist"))
	if !found {
		return notFound(c, "checklist")
	}
	card = card.Clone()
	item := models.ChecklistItem{ID: uuid.NewString()}
	if body.Name != nil {
		item.Name = *body.Name
	}
	if body.Position != nil {
		item.Position = *body.Position
	}
	card.Checklists[idx].Items = append(card.Checklists[idx].Items, item)
	b.cards[card.ID] = card
	return ok(c, "item created", item)
}

func (s *Server) updateItem(c echo.Context) error {
	var body struct {
		Name      *string  `json:"name"`
		Completed *bool    `json:"completed"`
		Position  *float64 `json:"position"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, idx, found := findChecklist(b, c.Param("checklist"))
	if !found {
		return notFound(c, "checklist")
	}
	card = card.Clone()
	items := card.Checklists[idx].Items
	for i := range items {
		if items[i].ID != c.Param("item") {
			continue
		}
		if body.Name != nil {
			items[i].Name = *body.Name
		}
		if body.Completed != nil {
			items[i].Completed = *body.Completed
		}
		if body.Position != nil {
			items[i].Position = *body.Position
		}
		b.cards[card.ID] = card
		return ok(c, "item updated", nil)
	}
	return notFound(c, "item")
}

func (s *Server) deleteItem(c echo.Context) error {
	b, found := s.lookup(c)
	defer s.mu.Unlock()
	if !found {
		return notFound(c, "board")
	}
	card, idx, found := findChecklist(b, c.Param("checklist"))
	if !found {
		return notFound(c, "checklist")
	}
	card = card.Clone()
	items := card.Checklists[idx].Items
	for i := range items {
		if items[i].ID == c.Param("item") {
			card.Checklists[idx].Items = append(items[:i:i], items[i+1:]...)
			b.cards[card.ID] = card
			return ok(c, "item deleted", nil)
		}
	}
	return notFound(c, "item")
}
