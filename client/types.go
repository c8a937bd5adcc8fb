package client

// Wire types for the remote API. Field names follow the authority's JSON.

// authResponse is the raw authentication response. The authority is loose
// about which token field it fills and whether it echoes the username;
// normalizeAuth is the single seam that tolerates this.
type authResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Clearance   int    `json:"clearance"`
	Username    string `json:"username"`
	Message     string `json:"message"`
}

// EnrollResponse is the result of a biometric enrollment.
type EnrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int    `json:"user_id,omitempty"`
}

// BiometricStatus reports whether an identity has an enrolled template.
type BiometricStatus struct {
	HasBiometric bool   `json:"has_biometric"`
	Message      string `json:"message"`
}

// LevelData is the clearance-gated payload for one data level.
type LevelData struct {
	Level   int            `json:"level"`
	Data    map[string]any `json:"data"`
	Message string         `json:"message"`
}

// CreateUserRequest creates a new account.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=public director minister"`
	Clearance int    `json:"clearance" validate:"required,min=1,max=3"`
}

// CreateUserResponse acknowledges account creation.
type CreateUserResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Clearance int    `json:"clearance"`
}

// AccountInfo is one entry in the administrative user listing.
type AccountInfo struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Clearance    int    `json:"clearance"`
	HasBiometric bool   `json:"has_biometric"`
}
