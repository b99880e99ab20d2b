package models

// User is an account record. Salt and Hash are hex-encoded PBKDF2
// material and never leave the server.
type User struct {
	Username          string `json:"username"`
	Salt              string `json:"salt"`
	Hash              string `json:"hash"`
	Joined            int64  `json:"joined"`
	Bio               string `json:"bio"`
	FeaturedProjectID string `json:"featuredProjectId,omitempty"`
	AvatarFile        string `json:"avatarFile,omitempty"`
}

// Session maps an opaque token to a logged-in user. Expires is epoch
// milliseconds; a session is valid while now < Expires.
type Session struct {
	Username string `json:"username"`
	Expires  int64  `json:"expires"`
}

// Profile is the public view of a User.
type Profile struct {
	Username          string `json:"username"`
	Bio               string `json:"bio"`
	Joined            int64  `json:"joined"`
	FeaturedProjectID string `json:"featuredProjectId,omitempty"`
	AvatarURL         string `json:"avatarUrl"`
}

// Credentials is the signup/signin request payload.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
