package model

// LightningInputs holds the typed identifiers parsed from a user's freeform
// message at session entry. Fields are normalized (scheme-prefixed website,
// lower-cased domain) and treated as immutable once parsed.
type LightningInputs struct {
	Email           string `json:"email,omitempty"`
	Website         string `json:"website,omitempty"`
	LinkedIn        string `json:"linkedin,omitempty"`
	Domain          string `json:"domain,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	AnonymousUserID string `json:"anonymous_user_id,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated,omitempty"`
}

// Empty reports whether no research identifier was found at all.
func (in LightningInputs) Empty() bool {
	return in.Email == "" && in.Website == "" && in.LinkedIn == ""
}
