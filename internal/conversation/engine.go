package conversation

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/superbot/core/logger"
)

// DefaultIdleTimeout ends a sticky mode after this long without activity.
const DefaultIdleTimeout = 5 * time.Minute

// Result tells whether a route took the message.
type Result int

const (
	NotHandled Result = iota
	Handled
)

// Step is what a matched route decided: the mode to move to and the work to
// run once the decision is stored.
type Step struct {
	Next Mode
	Run  func(ctx context.Context, c Conversation) error
}

type route struct {
	name  string
	match func(in Input, mode Mode) (Step, Result)
}

// Decision summarizes how one message was dispatched.
type Decision struct {
	// Route is empty when no route matched.
	Route   string
	Prev    Mode
	Next    Mode
	Expired bool
}

// Deps are the capabilities the routes call into. A nil dependency makes its
// commands answer with the feature's failure reply.
type Deps struct {
	Chat    ChatProvider
	Image   ImageProvider
	Weather WeatherProvider
	Speech  SpeechSynthesizer
	Sticker StickerMaker
	Ledger  Ledger
}

// Options tunes an Engine.
type Options struct {
	IdleTimeout time.Duration
	Now         func() time.Time
}

// Engine owns the conversation states and dispatches messages.
type Engine struct {
	store  *Store
	deps   Deps
	idle   time.Duration
	now    func() time.Time
	routes []route
}

// New returns an Engine with an empty state store.
func New(deps Deps, opts Options) *Engine {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		store: NewStore(),
		deps:  deps,
		idle:  opts.IdleTimeout,
		now:   opts.Now,
	}
	e.routes = []route{
		{"exit", e.matchExit},
		{"help", e.matchHelp},
		{"ledger.delete", e.matchDelete},
		{"ledger.save", e.matchSave},
		{"ledger.report", e.matchReport},
		{"ai.chat", e.matchChat},
		{"ai.image", e.matchImage},
		{"weather", e.matchWeather},
		{"sticker", e.matchSticker},
		{"voice", e.matchVoice},
	}
	return e
}

// Mode returns the live mode of conversation id without expiring it.
func (e *Engine) Mode(id int64) Mode {
	st, ok := e.store.Get(id)
	if !ok {
		return None
	}
	return st.Mode
}

// Active reports how many conversations hold a sticky mode.
func (e *Engine) Active() int { return e.store.Len() }

// Decide evaluates the idle timeout and the route list for in and stores the
// resulting state. It holds the store lock only for the decision itself.
func (e *Engine) Decide(id int64, in Input) (Decision, Step) {
	var (
		d    Decision
		step Step
	)
	e.store.Update(id, func(cur State, ok bool) (State, bool) {
		now := e.now()
		mode := None
		if ok {
			if now.Sub(cur.LastActivity) >= e.idle {
				d.Expired = true
			} else {
				mode = cur.Mode
			}
		}
		d.Prev = mode

		for _, r := range e.routes {
			s, res := r.match(in, mode)
			if res != Handled {
				continue
			}
			step, d.Route, d.Next = s, r.name, s.Next
			return State{Mode: s.Next, LastActivity: now}, true
		}

		d.Next = mode
		if d.Expired {
			return State{}, true
		}
		return cur, false
	})
	return d, step
}

// Handle dispatches one inbound message. At most one expiry notice precedes
// the matched route's replies. Errors come from the transport only.
func (e *Engine) Handle(ctx context.Context, c Conversation) (Decision, error) {
	id := c.ID()
	in := ParseInput(c.Text(), c.HasImage())
	d, step := e.Decide(id, in)

	ctx = logger.WithConversation(ctx, strconv.FormatInt(id, 10), d.Next.String())
	if d.Expired {
		logger.LogEvent(ctx, logger.Conv, slog.LevelInfo, "conv.expired",
			slog.String("status", "expired"),
			slog.Duration("idle", e.idle),
		)
		if err := c.Reply(ctx, msgExpired); err != nil {
			return d, err
		}
	}
	if d.Route == "" {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Conv, slog.LevelDebug, "conv.noop",
				slog.String("prev_mode", d.Prev.String()),
			)
		}
		return d, nil
	}

	logger.LogEvent(ctx, logger.Conv, slog.LevelDebug, "conv.dispatch",
		slog.String("route", d.Route),
		slog.String("prev_mode", d.Prev.String()),
	)
	if step.Run == nil {
		return d, nil
	}
	return d, step.Run(ctx, c)
}
