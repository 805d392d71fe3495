package passwordless

import "time"

type handlerDeps struct {
	repo      RepositoryManager
	notifier  Notifier
	cfg       Config
	now       Clock
	logger    Logger
	activity  ActivitySink
	useHashid bool
}

// HandlerOption configures the command handlers
type HandlerOption func(*handlerDeps)

// WithClock overrides the time source
func WithClock(clock Clock) HandlerOption {
	return func(d *handlerDeps) {
		if clock != nil {
			d.now = clock
		}
	}
}

// WithLogger sets the handler logger
func WithLogger(logger Logger) HandlerOption {
	return func(d *handlerDeps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithActivitySink sets where activity events are sent
func WithActivitySink(sink ActivitySink) HandlerOption {
	return func(d *handlerDeps) {
		d.activity = normalizeActivitySink(sink)
	}
}

// WithHashidUserIDs derives new user ids from the email address
func WithHashidUserIDs(enabled bool) HandlerOption {
	return func(d *handlerDeps) {
		d.useHashid = enabled
	}
}

func newHandlerDeps(repo RepositoryManager, notifier Notifier, cfg Config, opts ...HandlerOption) handlerDeps {
	d := handlerDeps{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		now:      defaultClock,
		logger:   nopLogger{},
		activity: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}

func (d handlerDeps) claimTTL() time.Duration {
	if d.cfg == nil || d.cfg.GetClaimTTL() <= 0 {
		return DefaultClaimTTL
	}
	return d.cfg.GetClaimTTL()
}

func (d handlerDeps) baseURL() string {
	if d.cfg == nil {
		return ""
	}
	return d.cfg.GetBaseURL()
}
