package models

// Profile is one of the two partners. PinHash is a bcrypt hash.
type Profile struct {
	Name    string
	Partner string
	PinHash []byte
}
