package identity

// Profile is what the chat directory knows about a user.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

// UnknownName is used when the directory has no usable name for a user.
const UnknownName = "Unknown"
