package transport

import "time"

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150,username"`
	Email    string `json:"email"    form:"email"    validate:"omitempty,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,max=128,maxbytes=72"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RefreshRequest is the body of both /refresh and /logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" form:"refresh"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessToken struct {
	Access string `json:"access"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

// BookRequest is a full book body, used by POST and PUT. Omitted genres mean none.
type BookRequest struct {
	Title       string `json:"title"       form:"title"       validate:"required,notblank,max=255"`
	Author      string `json:"author"      form:"author"      validate:"required,notblank,max=255"`
	Description string `json:"description" form:"description"`
	Genres      []uint `json:"genres"      form:"genres"`
}

// BookPatchRequest only touches the fields that are present.
type BookPatchRequest struct {
	Title       *string `json:"title"       validate:"omitempty,notblank,max=255"`
	Author      *string `json:"author"      validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	Genres      *[]uint `json:"genres"`
}

type GenreRequest struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100"`
}

type GenrePatchRequest struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=100"`
}

type BookQuery struct {
	Author   string `query:"author"`
	Genre    string `query:"genre"`
	Search   string `query:"search"`
	Ordering string `query:"ordering"`
}
