package models

// Owner identifies who tasks belong to for the current request: an
// authenticated user or an anonymous guest session. Exactly one of the
// two fields is ever populated; use the constructors to keep that
// invariant.
type Owner struct {
	UserID  int64
	GuestID string
}

// UserOwner returns the owner identity of an authenticated user.
func UserOwner(userID int64) Owner {
	return Owner{UserID: userID}
}

// GuestOwner returns the owner identity of an anonymous session holding
// the given guest token.
func GuestOwner(token string) Owner {
	return Owner{GuestID: token}
}

// IsUser reports whether the owner is an authenticated user rather than
// a guest.
func (o Owner) IsUser() bool {
	return o.UserID != 0
}
