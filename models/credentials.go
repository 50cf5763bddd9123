package models

// Credentials is the persisted session bundle: two scalar token entries
// and the cached user profile. The credential repository stores the three
// values as separate key/value rows and removes them atomically on logout.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         User
}
