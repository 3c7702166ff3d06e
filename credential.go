package counsel

// CredentialSource exposes the read-only authentication credential shared
// process-wide. Credential returns false when no credential is available,
// in which case Submit fails fast without opening a connection. Refresh
// and invalidation are the auth collaborator's concern.
type CredentialSource interface {
	Credential() (string, bool)
}

// StaticCredential is a CredentialSource backed by a fixed token.
// An empty token reads as absent.
type StaticCredential string

// Credential implements CredentialSource.
func (c StaticCredential) Credential() (string, bool) {
	return string(c), c != ""
}
