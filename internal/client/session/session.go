// Package session holds the identity of the logged-in partner. It is passed
// explicitly to every screen.
package session

// Session is the result of a successful PIN login.
type Session struct {
	User    string
	Partner string
	Token   string
}

// Valid reports whether s names both partners.
func (s Session) Valid() bool {
	return s.User != "" && s.Partner != "" && s.User != s.Partner
}
