package domain

type User struct {
	Id       UserId `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// DisplayName picks the name shown in a message header. A message alias
// always wins; otherwise the real name is used when the server asks for it
// and the author has one.
func (u User) DisplayName(useRealName bool, alias string) string {
	if alias != "" {
		return alias
	}
	if useRealName && u.Name != "" {
		return u.Name
	}
	return u.Username
}
