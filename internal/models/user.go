// Package models holds the data shapes shared between the API client,
// the session store and the application services.
package models

// User is the profile snapshot owned by the auth state container.
// It is refreshed on login/registration/profile update and never merged
// implicitly from unrelated responses.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsVerified   bool   `json:"isVerified,omitempty"`
	Role         string `json:"role,omitempty"`
	LastLogin    string `json:"lastLogin,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Merge returns a copy of u with the non-zero fields of patch applied.
// Identity fields (ID, Email) are never overwritten by a patch.
func (u User) Merge(patch UserPatch) User {
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.MobileNumber != nil {
		u.MobileNumber = *patch.MobileNumber
	}
	if patch.ProfileImage != nil {
		u.ProfileImage = *patch.ProfileImage
	}
	return u
}

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Name         *string `json:"name,omitempty"`
	Username     *string `json:"username,omitempty"`
	MobileNumber *string `json:"mobileNumber,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// RegisterData is the payload for direct registration and for the staged
// email-verification flow. In the staged flow it is held in memory until
// the one-time code is confirmed and is never persisted.
type RegisterData struct {
	Name         string `json:"name" validate:"required,min=2,max=50"`
	Username     string `json:"username" validate:"required,min=3,max=30,username"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6,max=50"`
	MobileNumber string `json:"mobileNumber,omitempty" validate:"omitempty,mobile"`
}
