package passwordless

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// SignUpRequest is the sign-up payload. Resend takes the same payload.
type SignUpRequest struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	Name     string `form:"name" json:"name"`
}

// Normalize trims the fields and lower cases the email
func (r *SignUpRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)
}

// Validate will validate the payload
func (r SignUpRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
			validation.Field(&r.Username, validation.Required, validation.Length(3, 32), validation.Match(usernamePattern)),
			validation.Field(&r.Name, validation.Length(0, 100)),
		)
	}, "Invalid sign up request payload")
}

// SignInRequest is the sign-in payload
type SignInRequest struct {
	Email string `form:"email" json:"email"`
}

// Normalize trims and lower cases the email
func (r *SignInRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// Validate will validate the payload
func (r SignInRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		)
	}, "Invalid sign in request payload")
}

// UserUpdateRequest holds the editable profile fields. Only fields present
// in the request are written.
type UserUpdateRequest struct {
	Name  *string `form:"name" json:"name"`
	Image *string `form:"image" json:"image"`
}

// Normalize trims the provided fields. A field that is only whitespace
// becomes empty and clears the column.
func (r *UserUpdateRequest) Normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Image != nil {
		image := strings.TrimSpace(*r.Image)
		r.Image = &image
	}
}

// Validate will validate the payload
func (r UserUpdateRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Name, validation.Length(0, 100)),
			validation.Field(&r.Image, validation.Length(0, 2048), is.URL),
		)
	}, "Invalid user update payload")
}

// Changes converts the normalized request into repository changes
func (r UserUpdateRequest) Changes() ProfileChanges {
	return ProfileChanges{
		Name:  r.Name,
		Image: r.Image,
	}
}

// UserDeleteRequest must carry an explicit confirmation
type UserDeleteRequest struct {
	Confirm bool `form:"confirm" json:"confirm"`
}

// CreatePostRequest is the new post payload
type CreatePostRequest struct {
	Title string `form:"title" json:"title"`
}

// Validate will validate the payload
func (r CreatePostRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		)
	}, "Invalid post payload")
}
