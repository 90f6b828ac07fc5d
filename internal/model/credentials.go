package model

// Credentials are the marketplace API tokens for one user. They are stored
// encrypted at rest and only decrypted for the duration of a poll check.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Cookie       string `json:"cookie"`
}
