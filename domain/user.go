package domain

// User is the directory-facing view of an account.
// DisplayName is the unique human-facing lookup key, distinct from ID.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Identity is what a verified credential resolves to.
// Claims are trusted as-is for the lifetime of the connection.
type Identity struct {
	UserID      string
	DisplayName string
}
