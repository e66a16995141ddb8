package domain

// User is an administrator account. PasswordHash is a bcrypt hash, never the plaintext.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
}
