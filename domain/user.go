package domain

// User is a Kanboard user. Sensors only count users; the name is used to
// label task assignees.
type User struct {
	ID       LooseInt `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name,omitempty"`
}

// DisplayName prefers the full name and falls back to the login.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
