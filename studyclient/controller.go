// Package studyclient drives a flashcard study session on the device: the
// card queue, the foreground-gated timer and the calls that open and close
// the session on the server.
package studyclient

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
)

type State int

const (
	StateIdle State = iota
	StateActive
	StateShowingQuestion
	StateShowingAnswer
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateShowingQuestion:
		return "showing_question"
	case StateShowingAnswer:
		return "showing_answer"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// AppState mirrors the host application's lifecycle.
type AppState string

const (
	AppActive     AppState = "active"
	AppInactive   AppState = "inactive"
	AppBackground AppState = "background"
)

type Notice string

const NoticeInactivity Notice = "inactivity"

var (
	ErrSessionAlreadyActive = errors.New("a study session is already active")
	ErrNoActiveSession      = errors.New("no active study session")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrDeckFinished         = errors.New("deck finished")
	ErrInvalidDifficulty    = errors.New("difficulty must be again, hard, good or easy")
	ErrAppNotActive         = errors.New("study sessions can only start in the foreground")
)

type Review struct {
	CardID     uuid.UUID
	Difficulty string
}

type Option func(*Controller)

// WithRand fixes the source used for shuffling and again-reinsertion.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rand = r }
}

// WithTick changes the timer period. Elapsed still counts one per tick.
func WithTick(d time.Duration) Option {
	return func(c *Controller) { c.tickEvery = d }
}

type Controller struct {
	api       API
	rand      *rand.Rand
	tickEvery time.Duration
	notices   chan Notice

	// op serialises operations that talk to the server.
	op sync.Mutex

	mu        sync.Mutex
	state     State
	appState  AppState
	session   *models.StudySession
	result    *models.StudySession
	cards     []models.Flashcard
	index     int
	history   []Review
	elapsed   int
	running   bool
	timerStop chan struct{}
}

func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		tickEvery: time.Second,
		notices:   make(chan Notice, 8),
		appState:  AppActive,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Start opens a session on the server, loads and shuffles the deck.
func (c *Controller) Start(ctx context.Context, deckID uuid.UUID, goalMinutes int) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	busy := c.sessionActive()
	foreground := c.appState == AppActive
	c.mu.Unlock()
	if busy {
		return ErrSessionAlreadyActive
	}
	if !foreground {
		return ErrAppNotActive
	}

	existing, err := c.api.ActiveSession(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrSessionAlreadyActive
	}

	session, err := c.api.StartSession(ctx, deckID, goalMinutes)
	if err != nil {
		return err
	}
	cards, err := c.api.Cards(ctx, deckID)
	if err != nil {
		if cerr := c.api.CancelSession(ctx, session.ID); cerr != nil {
			log.Printf("⚠️ Failed to cancel session %s after card load error: %v", session.ID, cerr)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	c.session = session
	c.result = nil
	c.cards = cards
	c.index = 0
	c.history = nil
	c.elapsed = 0
	c.state = StateShowingQuestion
	if len(cards) == 0 {
		c.state = StateActive
	}
	c.running = true
	c.startTimer()
	return nil
}

func (c *Controller) ShowAnswer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateShowingQuestion {
		return ErrInvalidTransition
	}
	c.state = StateShowingAnswer
	return nil
}

// Advance rates the current card. "again" moves the card two to four
// places ahead, any other rating moves on to the next card.
func (c *Controller) Advance(ctx context.Context, difficulty string) error {
	switch difficulty {
	case models.ReviewAgain, models.ReviewHard, models.ReviewGood, models.ReviewEasy:
	default:
		return ErrInvalidDifficulty
	}

	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if !c.sessionActive() {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.index >= len(c.cards) {
		c.mu.Unlock()
		return ErrDeckFinished
	}
	if c.state != StateShowingAnswer {
		c.mu.Unlock()
		return ErrInvalidTransition
	}

	card := c.cards[c.index]
	sessionID := c.session.ID
	c.history = append(c.history, Review{CardID: card.ID, Difficulty: difficulty})

	if difficulty == models.ReviewAgain {
		if target := reinsert(c.cards, c.index, c.rand); target == c.index {
			c.index++
		}
	} else {
		c.index++
	}

	c.state = StateShowingQuestion
	if c.index >= len(c.cards) {
		c.state = StateActive
	}
	c.mu.Unlock()

	if err := c.api.RecordReview(ctx, sessionID, card.ID, difficulty); err != nil {
		log.Printf("⚠️ Failed to record review of card %s: %v", card.ID, err)
	}
	return nil
}

// reinsert moves cards[i] to a random index in [i+2, min(i+4, n-1)] and
// returns that index. Near the end of the deck the card goes last.
func reinsert(cards []models.Flashcard, i int, r *rand.Rand) int {
	last := len(cards) - 1
	lo, hi := i+2, i+4
	if hi > last {
		hi = last
	}
	if lo > hi {
		lo = hi
	}
	target := lo + r.Intn(hi-lo+1)

	card := cards[i]
	copy(cards[i:target], cards[i+1:target+1])
	cards[target] = card
	return target
}

// Finish closes the session. The reward is computed by the server from its
// own timestamps.
func (c *Controller) Finish(ctx context.Context) (*models.StudySession, error) {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if !c.sessionActive() {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	c.running = false
	c.stopTimer()
	sessionID := c.session.ID
	studied := distinctCards(c.history)
	c.mu.Unlock()

	result, err := c.api.FinishSession(ctx, sessionID, studied)
	if err != nil {
		c.mu.Lock()
		if c.sessionActive() && c.appState == AppActive {
			c.running = true
			c.startTimer()
		}
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	c.result = result
	c.state = StateCompleted
	return result, nil
}

// Cancel stops the session with no reward. Local state is cleared even
// when the server call fails; the call is not retried.
func (c *Controller) Cancel(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if !c.sessionActive() {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	sessionID := c.session.ID
	c.clear()
	c.state = StateCancelled
	c.mu.Unlock()

	return c.api.CancelSession(ctx, sessionID)
}

// SetAppState records a lifecycle change. Leaving the foreground with a
// session in progress forfeits it.
func (c *Controller) SetAppState(ctx context.Context, state AppState) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	prev := c.appState
	c.appState = state
	if prev != AppActive || state == AppActive || !c.sessionActive() {
		c.mu.Unlock()
		return nil
	}
	sessionID := c.session.ID
	c.clear()
	c.state = StateCancelled
	c.mu.Unlock()

	log.Printf("⚠️ Study session %s forfeited: app went %s", sessionID, state)
	select {
	case c.notices <- NoticeInactivity:
	default:
	}
	return c.api.CancelSession(ctx, sessionID)
}

// Notices delivers user-facing notices such as NoticeInactivity.
func (c *Controller) Notices() <-chan Notice {
	return c.notices
}

// Close stops the timer without touching the server session.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.stopTimer()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the foreground time of the current session in ticks.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Controller) TimerRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timerStop != nil
}

func (c *Controller) CurrentCard() (models.Flashcard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sessionActive() || c.index >= len(c.cards) {
		return models.Flashcard{}, false
	}
	return c.cards[c.index], true
}

func (c *Controller) DeckFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionActive() && c.index >= len(c.cards)
}

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) Deck() []models.Flashcard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Flashcard(nil), c.cards...)
}

func (c *Controller) History() []Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Review(nil), c.history...)
}

// Session returns the open session, or the last finished one.
func (c *Controller) Session() *models.StudySession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		s := *c.session
		return &s
	}
	if c.result != nil {
		s := *c.result
		return &s
	}
	return nil
}

func (c *Controller) sessionActive() bool {
	switch c.state {
	case StateActive, StateShowingQuestion, StateShowingAnswer:
		return c.session != nil
	}
	return false
}

// clear drops the local session. Callers hold mu.
func (c *Controller) clear() {
	c.running = false
	c.stopTimer()
	c.elapsed = 0
	c.session = nil
	c.cards = nil
	c.index = 0
	c.history = nil
}

// startTimer launches the ticker goroutine unless one is already running.
// Callers hold mu.
func (c *Controller) startTimer() {
	if c.timerStop != nil {
		return
	}
	stop := make(chan struct{})
	c.timerStop = stop
	go c.runTimer(stop)
}

// stopTimer signals the ticker goroutine. Callers hold mu.
func (c *Controller) stopTimer() {
	if c.timerStop == nil {
		return
	}
	close(c.timerStop)
	c.timerStop = nil
}

func (c *Controller) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(c.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.tick(stop) {
				return
			}
		}
	}
}

// tick counts one period if stop still belongs to the live timer. It
// reports false once that timer has been replaced or stopped.
func (c *Controller) tick(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timerStop != stop {
		return false
	}
	if c.running && c.appState == AppActive {
		c.elapsed++
	}
	return true
}

func distinctCards(history []Review) int {
	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, r := range history {
		seen[r.CardID] = struct{}{}
	}
	return len(seen)
}
