// Package services contains the server-side business logic behind the
// gateway RPCs: profile login, record storage and blob upload presigning.
package services

// Caller is the authenticated profile making a request.
type Caller struct {
	Profile string
	Partner string
}
