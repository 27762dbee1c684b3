package app

import (
	"math"
	"sync"
	"time"

	"quiz-studio/internal/domain"
)

// DefaultTick is how often the countdown is recomputed.
const DefaultTick = 200 * time.Millisecond

// Controller drives a Session through time: it owns the single countdown
// ticker, auto-advances on expiry and pushes View snapshots to subscribers.
// All session access goes through its mutex.
type Controller struct {
	mu      sync.Mutex
	session *Session
	clock   Clock
	tick    time.Duration
	// autoAdvance is the pause between an answer and moving on; zero disables it.
	autoAdvance time.Duration

	ticker    Ticker
	done      chan struct{}
	gen       uint64
	deadline  time.Time
	remaining time.Duration
	advanceAt time.Time

	onChange    func(domain.SessionState)
	onEvent     func(Event)
	subscribers map[chan View]struct{}
}

// Event describes something the controller did on its own or on request,
// for metrics and logs.
type Event struct {
	Kind     EventKind
	Index    int
	Question domain.QuestionType
	Correct  bool
}

type EventKind string

const (
	EventAnswered  EventKind = "answered"
	EventExpired   EventKind = "expired"
	EventCompleted EventKind = "completed"
	EventRestarted EventKind = "restarted"
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

func WithClock(c Clock) ControllerOption { return func(ctl *Controller) { ctl.clock = c } }

func WithTick(d time.Duration) ControllerOption {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.tick = d
		}
	}
}

func WithAutoAdvance(d time.Duration) ControllerOption {
	return func(ctl *Controller) { ctl.autoAdvance = d }
}

// WithOnChange registers the hook called after every state change that
// should be persisted. It runs under the controller lock.
func WithOnChange(fn func(domain.SessionState)) ControllerOption {
	return func(ctl *Controller) { ctl.onChange = fn }
}

func WithOnEvent(fn func(Event)) ControllerOption {
	return func(ctl *Controller) { ctl.onEvent = fn }
}

func NewController(session *Session, opts ...ControllerOption) *Controller {
	c := &Controller{
		session:     session,
		clock:       SystemClock{},
		tick:        DefaultTick,
		subscribers: make(map[chan View]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start anchors the countdown on the restored time left and starts ticking
// unless the session is paused or empty.
func (c *Controller) Start() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchorLocked(c.session.state.TimeLeft)
	return c.broadcastLocked()
}

// Enter (re)enters the current question with a full time budget.
func (c *Controller) Enter() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enterLocked()
	return c.broadcastLocked()
}

// View returns the current projection without changing anything but the
// cached display order.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildView(c.session)
}

// State returns a copy of the session state.
func (c *Controller) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State()
}

// Submit answers the current question.
func (c *Controller) Submit(a domain.Answer) (Result, View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.session.Index()
	res, err := c.session.Submit(k, a)
	if err != nil {
		return Result{}, buildView(c.session), err
	}
	if c.autoAdvance > 0 {
		c.advanceAt = c.clock.Now().Add(c.autoAdvance)
	}
	q, _ := c.session.Question(k)
	c.emit(Event{Kind: EventAnswered, Index: k, Question: q.Kind(), Correct: res.Correct})
	c.changedLocked()
	return res, c.broadcastLocked(), nil
}

// Next advances to the next question or completes the quiz.
func (c *Controller) Next() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.advanceLocked(); err != nil {
		return buildView(c.session), err
	}
	c.changedLocked()
	return c.broadcastLocked(), nil
}

// Prev goes back one question; at the first question nothing happens.
func (c *Controller) Prev() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Retreat() {
		c.enterLocked()
		c.changedLocked()
	}
	return c.broadcastLocked()
}

// Pause freezes the countdown, remembering the time left.
func (c *Controller) Pause() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
	return c.broadcastLocked()
}

// Resume continues the countdown from the time left at pause.
func (c *Controller) Resume() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
	return c.broadcastLocked()
}

// TogglePause pauses a running countdown or resumes a paused one.
func (c *Controller) TogglePause() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.state.IsPaused {
		c.resumeLocked()
	} else {
		c.pauseLocked()
	}
	return c.broadcastLocked()
}

// Restart reopens all slots and starts again from the first question.
func (c *Controller) Restart() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Restart()
	c.emit(Event{Kind: EventRestarted})
	c.enterLocked()
	c.changedLocked()
	return c.broadcastLocked()
}

// Edit runs fn against the session under the lock, then re-enters the
// current question and persists. Errors from fn leave the timer alone.
func (c *Controller) Edit(fn func(*Session) error) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(c.session); err != nil {
		return buildView(c.session), err
	}
	c.enterLocked()
	c.changedLocked()
	return c.broadcastLocked(), nil
}

// Update is Edit without re-entering: settings and cosmetic changes keep
// the running countdown.
func (c *Controller) Update(fn func(*Session) error) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(c.session); err != nil {
		return buildView(c.session), err
	}
	c.capDeadlineLocked()
	c.changedLocked()
	return c.broadcastLocked(), nil
}

// Stop cancels the ticker. The controller can be started again.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickerLocked()
}

// Tick processes one clock tick at now. The ticker goroutine calls it;
// tests call it directly with a fake clock.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked(now)
}

func (c *Controller) tickFrom(gen uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.tickLocked(now)
}

func (c *Controller) tickLocked(now time.Time) {
	s := c.session
	if s.state.IsPaused || s.Completed() || s.Len() == 0 {
		return
	}

	left := secondsLeft(c.deadline, now)
	changed := left != s.state.TimeLeft
	s.setTimeLeft(left)

	switch {
	case !c.advanceAt.IsZero() && !now.Before(c.advanceAt):
		c.advanceAt = time.Time{}
		_ = c.advanceLocked()
		c.changedLocked()
		c.broadcastLocked()
	case left <= 0:
		k := s.Index()
		if s.ExpireCurrent() {
			q, _ := s.Question(k)
			c.emit(Event{Kind: EventExpired, Index: k, Question: q.Kind()})
		}
		_ = c.advanceLocked()
		c.changedLocked()
		c.broadcastLocked()
	case changed:
		c.broadcastLocked()
	}
}

func (c *Controller) advanceLocked() error {
	if c.session.Completed() {
		return nil
	}
	done, err := c.session.Advance()
	if err != nil {
		return err
	}
	if done {
		c.stopTickerLocked()
		c.advanceAt = time.Time{}
		c.emit(Event{Kind: EventCompleted, Index: c.session.Index()})
		return nil
	}
	c.enterLocked()
	return nil
}

func (c *Controller) enterLocked() {
	c.anchorLocked(c.session.state.QuestionTime)
}

// anchorLocked sets a fresh deadline seconds from now and restarts the
// ticker, replacing any previous one.
func (c *Controller) anchorLocked(seconds int) {
	c.stopTickerLocked()
	c.advanceAt = time.Time{}
	s := c.session
	if s.Len() == 0 {
		s.setTimeLeft(0)
		return
	}
	if seconds <= 0 || seconds > s.state.QuestionTime {
		seconds = s.state.QuestionTime
	}
	s.setTimeLeft(seconds)
	c.remaining = time.Duration(seconds) * time.Second
	c.deadline = c.clock.Now().Add(c.remaining)
	if !s.state.IsPaused && !s.Completed() {
		c.startTickerLocked()
	}
}

// capDeadlineLocked pulls the deadline in when the time left was cut
// below what the running countdown still allows.
func (c *Controller) capDeadlineLocked() {
	limit := time.Duration(c.session.state.TimeLeft) * time.Second
	if c.remaining > limit {
		c.remaining = limit
	}
	if c.session.state.IsPaused || c.deadline.IsZero() {
		return
	}
	now := c.clock.Now()
	if c.deadline.Sub(now) > limit {
		c.deadline = now.Add(limit)
	}
}

func (c *Controller) pauseLocked() {
	s := c.session
	if s.Len() == 0 || s.state.IsPaused {
		return
	}
	now := c.clock.Now()
	c.remaining = c.deadline.Sub(now)
	if c.remaining < 0 {
		c.remaining = 0
	}
	s.setTimeLeft(secondsLeft(c.deadline, now))
	s.setPaused(true)
	c.stopTickerLocked()
}

func (c *Controller) resumeLocked() {
	s := c.session
	if s.Len() == 0 || !s.state.IsPaused {
		return
	}
	s.setPaused(false)
	c.deadline = c.clock.Now().Add(c.remaining)
	if !s.Completed() {
		c.startTickerLocked()
	}
}

func (c *Controller) startTickerLocked() {
	c.stopTickerLocked()
	c.gen++
	gen := c.gen
	t := c.clock.NewTicker(c.tick)
	done := make(chan struct{})
	c.ticker, c.done = t, done
	go func() {
		for {
			select {
			case now := <-t.C():
				c.tickFrom(gen, now)
			case <-done:
				return
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.ticker, c.done = nil, nil
	c.gen++
}

// Running reports whether a countdown ticker is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}

func (c *Controller) changedLocked() {
	if c.onChange != nil {
		c.onChange(c.session.State())
	}
}

func (c *Controller) emit(e Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}

// Subscribe returns a channel of View snapshots, starting with the current
// one. The caller must invoke cancel to release it.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- buildView(c.session)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcastLocked() View {
	v := buildView(c.session)
	for ch := range c.subscribers {
		select {
		case ch <- v:
		default:
			// Slow subscriber: replace its oldest snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}

// secondsLeft rounds up so the display reads the full budget right after
// anchoring.
func secondsLeft(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
