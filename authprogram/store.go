package authprogram

import "context"

type (
	// User is the persisted user document.
	//
	// PasswordHash must never leave the server, use Public to build
	// external representations.
	User struct {
		ID           string       `msgpack:"id"`
		Email        string       `msgpack:"email"`
		PasswordHash string       `msgpack:"password_hash"`
		Tokens       []TokenEntry `msgpack:"tokens"`
	}

	// TokenEntry is one active session of a user.
	TokenEntry struct {
		Purpose string `msgpack:"access"`
		Token   string `msgpack:"token"`
	}

	// PublicUser is the only representation of a user sent to clients.
	PublicUser struct {
		ID    string `json:"_id"`
		Email string `json:"email"`
	}

	// UserStore is the persistence contract required by Service.
	//
	// Find* methods return (nil, nil) when nothing matches.
	// Atomicity of each operation is the responsibility of the implementation.
	UserStore interface {
		FindByID(ctx context.Context, id string) (*User, error)
		FindByEmail(ctx context.Context, email string) (*User, error)
		// FindByCredentialLookup returns the user only if it holds an entry
		// matching both token and purpose.
		FindByCredentialLookup(ctx context.Context, id, token, purpose string) (*User, error)
		// Insert fails with ErrDuplicateEmail if the email is taken.
		Insert(ctx context.Context, user *User) (*User, error)
		// AppendToken fails with ErrUserNotFound if userID does not exist.
		AppendToken(ctx context.Context, userID string, entry TokenEntry) error
		// RemoveToken removes at most one entry, removing a missing token
		// is not an error.
		RemoveToken(ctx context.Context, userID string, token string) error
		// UpdatePassword fails with ErrUserNotFound if userID does not exist.
		UpdatePassword(ctx context.Context, userID string, newHash string) error
		// DeleteUser removes the user and all of its token entries,
		// deleting a missing user is not an error.
		DeleteUser(ctx context.Context, userID string) error
	}
)

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}

// HasToken reports whether u holds token for the given purpose.
func (u *User) HasToken(token, purpose string) bool {
	for _, t := range u.Tokens {
		if t.Token == token && t.Purpose == purpose {
			return true
		}
	}
	return false
}
