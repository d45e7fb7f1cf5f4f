package identity

// RegisterInput represents a sign-up request
type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginInput represents a login request
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  UserInfo `json:"user"`
	Token string   `json:"token"`
}
