package passwordless

import (
	"time"

	"github.com/google/uuid"
)

// A DTO is an entity projection that is safe to hand to a given viewer.
// Users have two: the outward facing one is used whenever a user's data is
// shown to somebody else and never carries the email address, the inward
// facing one is used when users look at their own record. Neither exposes
// the verification status.

// OutwardFacingUserDTO is what other users get to see
type OutwardFacingUserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InwardFacingUserDTO is what users get to see about themselves
type InwardFacingUserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostDTO mirrors the post entity
type PostDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToOutwardFacingUserDTO projects user for a third party viewer
func ToOutwardFacingUserDTO(user *User) OutwardFacingUserDTO {
	if user == nil {
		return OutwardFacingUserDTO{}
	}
	return OutwardFacingUserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToInwardFacingUserDTO projects user for the user itself
func ToInwardFacingUserDTO(user *User) InwardFacingUserDTO {
	if user == nil {
		return InwardFacingUserDTO{}
	}
	return InwardFacingUserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Name:      user.Name,
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UserDTOFor picks the projection based on who is looking. viewerID is the
// id of the authenticated viewer or uuid.Nil for anonymous requests.
func UserDTOFor(user *User, viewerID uuid.UUID) any {
	if user != nil && viewerID != uuid.Nil && user.ID == viewerID {
		return ToInwardFacingUserDTO(user)
	}
	return ToOutwardFacingUserDTO(user)
}

// ToPostDTO projects a post
func ToPostDTO(post *Post) PostDTO {
	if post == nil {
		return PostDTO{}
	}
	return PostDTO{
		ID:        post.ID,
		Title:     post.Title,
		CreatedBy: post.CreatedBy,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// ToPostDTOs projects a list of posts
func ToPostDTOs(posts []*Post) []PostDTO {
	out := make([]PostDTO, 0, len(posts))
	for _, post := range posts {
		out = append(out, ToPostDTO(post))
	}
	return out
}
