package passwordless

import (
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UsersController serves profile and post endpoints
type UsersController struct {
	Logger      Logger
	AfterDelete string
	cfg         Config
	repo        RepositoryManager
	middleware  *SessionMiddleware
	update      *UserUpdateHandler
	remove      *UserDeleteHandler
	createPost  *CreatePostHandler
}

type UsersControllerOption func(*UsersController)

// WithUsersControllerLogger sets the controller logger
func WithUsersControllerLogger(logger Logger) UsersControllerOption {
	return func(uc *UsersController) {
		if logger != nil {
			uc.Logger = logger
		}
	}
}

// NewUsersController creates the controller
func NewUsersController(
	cfg Config,
	repo RepositoryManager,
	middleware *SessionMiddleware,
	update *UserUpdateHandler,
	remove *UserDeleteHandler,
	createPost *CreatePostHandler,
	opts ...UsersControllerOption,
) *UsersController {
	uc := &UsersController{
		Logger:      nopLogger{},
		AfterDelete: "/",
		cfg:         cfg,
		repo:        repo,
		middleware:  middleware,
		update:      update,
		remove:      remove,
		createPost:  createPost,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uc)
		}
	}
	return uc
}

// RegisterRoutes registers user and post routes
func (u *UsersController) RegisterRoutes(app RouteRegistrar) {
	optional := u.middleware.LoadSession()
	protected := u.middleware.ProtectedRoute()

	app.Get("/users/:id", u.Show, optional).SetName("users.show")
	app.Post("/users/:id", u.Update, protected).SetName("users.update")
	app.Delete("/users/:id", u.Delete, protected).SetName("users.delete")
	app.Get("/users/:id/posts", u.ListPosts).SetName("users.posts")
	app.Post("/posts", u.CreatePost, protected).SetName("posts.create")
}

// Show returns the inward facing DTO to the user itself and the outward
// facing one to everybody else
func (u *UsersController) Show(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return WriteError(ctx, ErrUserNotFound, u.Logger)
	}

	user, err := u.repo.Users().FindByID(ctx.Context(), id)
	if err != nil {
		if isNotFound(err) {
			return WriteError(ctx, ErrUserNotFound, u.Logger)
		}
		return WriteError(ctx, err, u.Logger)
	}

	return ctx.JSON(router.StatusOK, UserDTOFor(user, ViewerID(ctx)))
}

func (u *UsersController) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return WriteError(ctx, ErrUserNotFound, u.Logger)
	}

	payload := new(UserUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		u.Logger.Error("user update parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	var updated *User
	err = u.update.Execute(ctx.Context(), UserUpdateMessage{
		ActorID: ViewerID(ctx),
		UserID:  id,
		Data:    *payload,
		OnResponse: func(user *User) {
			updated = user
		},
	})
	if err != nil {
		return WriteError(ctx, err, u.Logger)
	}

	return ctx.JSON(router.StatusOK, ToInwardFacingUserDTO(updated))
}

// Delete removes the account, signs the caller out and redirects home
func (u *UsersController) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return WriteError(ctx, ErrUserNotFound, u.Logger)
	}

	payload := new(UserDeleteRequest)
	if err := ctx.Bind(payload); err != nil {
		u.Logger.Error("user delete parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	err = u.remove.Execute(ctx.Context(), UserDeleteMessage{
		ActorID: ViewerID(ctx),
		UserID:  id,
		Confirm: payload.Confirm,
	})
	if err != nil {
		return WriteError(ctx, err, u.Logger)
	}

	clearSessionCookie(ctx, u.cfg)

	return ctx.Redirect(u.AfterDelete, http.StatusSeeOther)
}

func (u *UsersController) ListPosts(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return WriteError(ctx, ErrUserNotFound, u.Logger)
	}

	if _, err := u.repo.Users().FindByID(ctx.Context(), id); err != nil {
		if isNotFound(err) {
			return WriteError(ctx, ErrUserNotFound, u.Logger)
		}
		return WriteError(ctx, err, u.Logger)
	}

	posts, err := u.repo.Posts().ListByAuthor(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err, u.Logger)
	}

	return ctx.JSON(router.StatusOK, ToPostDTOs(posts))
}

func (u *UsersController) CreatePost(ctx router.Context) error {
	payload := new(CreatePostRequest)
	if err := ctx.Bind(payload); err != nil {
		u.Logger.Error("create post parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, ErrorResponse{Error: "Failed to parse body"})
	}

	var created *Post
	err := u.createPost.Execute(ctx.Context(), CreatePostMessage{
		AuthorID: ViewerID(ctx),
		Data:     *payload,
		OnResponse: func(post *Post) {
			created = post
		},
	})
	if err != nil {
		return WriteError(ctx, err, u.Logger)
	}

	return ctx.JSON(http.StatusCreated, ToPostDTO(created))
}
