package passwordless

import (
	"net/http"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the paths of the auth endpoints
type AuthControllerRoutes struct {
	SignUp       string
	ResendSignUp string
	SignIn       string
	Verify       string
	SignOut      string
}

func defaultAuthRoutes() AuthControllerRoutes {
	return AuthControllerRoutes{
		SignUp:       "/auth/sign-up",
		ResendSignUp: "/auth/sign-up/resend",
		SignIn:       "/auth/sign-in",
		Verify:       verifyPath,
		SignOut:      "/auth/sign-out",
	}
}

// AuthController exposes the passwordless flows over HTTP
type AuthController struct {
	Routes          AuthControllerRoutes
	SuccessRedirect string
	Logger          Logger
	cfg             Config
	signUp          *SignUpHandler
	resend          *ResendSignUpEmailHandler
	signIn          *SignInHandler
	verify          *VerifyEmailHandler
	sessions        Sessions
	activity        ActivitySink
}

type AuthControllerOption func(*AuthController)

// WithAuthControllerLogger sets the controller logger
func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) {
		if logger != nil {
			ac.Logger = logger
		}
	}
}

// WithAuthControllerRoutes overrides the default paths
func WithAuthControllerRoutes(routes AuthControllerRoutes) AuthControllerOption {
	return func(ac *AuthController) {
		ac.Routes = routes
	}
}

// WithAuthControllerActivity sets the sink for sign-out events
func WithAuthControllerActivity(sink ActivitySink) AuthControllerOption {
	return func(ac *AuthController) {
		ac.activity = normalizeActivitySink(sink)
	}
}

// NewAuthController wires the command handlers into HTTP handlers
func NewAuthController(
	cfg Config,
	signUp *SignUpHandler,
	resend *ResendSignUpEmailHandler,
	signIn *SignInHandler,
	verify *VerifyEmailHandler,
	sessions Sessions,
	opts ...AuthControllerOption,
) *AuthController {
	ac := &AuthController{
		Routes:          defaultAuthRoutes(),
		SuccessRedirect: "/",
		Logger:          nopLogger{},
		cfg:             cfg,
		signUp:          signUp,
		resend:          resend,
		signIn:          signIn,
		verify:          verify,
		sessions:        sessions,
		activity:        noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ac)
		}
	}

	return ac
}

// RegisterRoutes registers the auth routes
func (a *AuthController) RegisterRoutes(app RouteRegistrar) {
	app.Post(a.Routes.SignUp, a.SignUp).SetName("sign-up.post")
	app.Post(a.Routes.ResendSignUp, a.ResendSignUpEmail).SetName("sign-up-resend.post")
	app.Post(a.Routes.SignIn, a.SignIn).SetName("sign-in.post")
	app.Get(a.Routes.Verify, a.Verify).SetName("verify.get")
	app.Post(a.Routes.SignOut, a.SignOut).SetName("sign-out.post")
}

func (a *AuthController) SignUp(ctx router.Context) error {
	payload := new(SignUpRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign up parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	a.Logger.Debug("sign up payload", "payload", print.MaybePrettyJSON(payload))

	err := a.signUp.Execute(ctx.Context(), SignUpMessage{SignUpRequest: *payload})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, "ok")
}

func (a *AuthController) ResendSignUpEmail(ctx router.Context) error {
	payload := new(SignUpRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("resend sign up parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	err := a.resend.Execute(ctx.Context(), ResendSignUpEmailMessage{SignUpRequest: *payload})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, "ok")
}

func (a *AuthController) SignIn(ctx router.Context) error {
	payload := new(SignInRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	var resp *SignInResponse
	err := a.signIn.Execute(ctx.Context(), SignInMessage{
		SignInRequest: *payload,
		OnResponse: func(r *SignInResponse) {
			resp = r
		},
	})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": resp.Status,
	})
}

// Verify consumes the emailed token, sets the session cookie and sends
// the user home
func (a *AuthController) Verify(ctx router.Context) error {
	var resp *VerifyEmailResponse
	err := a.verify.Execute(ctx.Context(), VerifyEmailMessage{
		Token: ctx.Query("token", ""),
		OnResponse: func(r *VerifyEmailResponse) {
			resp = r
		},
	})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	if resp.SessionCookie != "" {
		setSessionCookie(ctx, a.cfg, resp.SessionCookie, sessionTTL(a.cfg))
	}

	return ctx.Redirect(a.SuccessRedirect, http.StatusSeeOther)
}

// SignOut ends the current session and clears the cookie
func (a *AuthController) SignOut(ctx router.Context) error {
	value := ctx.Cookies(cookieName(a.cfg))

	event := ActivityEvent{EventType: ActivityEventSignedOut}
	if session, err := a.sessions.Resolve(ctx.Context(), value); err == nil {
		event.UserID = session.UserID.String()
		event.Metadata = map[string]any{"session_id": session.ID.String()}
	}

	if err := a.sessions.End(ctx.Context(), value); err != nil {
		a.Logger.Error("sign out failed", "error", err)
	}

	clearSessionCookie(ctx, a.cfg)

	recordActivity(ctx.Context(), a.activity, a.Logger, event)

	return ctx.Redirect(a.SuccessRedirect, http.StatusSeeOther)
}

func sessionTTL(cfg Config) time.Duration {
	if cfg == nil || cfg.GetSessionTTL() <= 0 {
		return DefaultSessionTTL
	}
	return cfg.GetSessionTTL()
}
