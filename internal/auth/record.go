package auth

// AuthorizedUserType is the fixed type tag of a cached credential record.
const AuthorizedUserType = "authorized_user"

// AuthorizedUser is the cached credential record.
type AuthorizedUser struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether every field is set and the type tag is the expected one.
func (r *AuthorizedUser) Complete() bool {
	return r != nil &&
		r.Type == AuthorizedUserType &&
		r.ClientID != "" &&
		r.ClientSecret != "" &&
		r.RefreshToken != ""
}
