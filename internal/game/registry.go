package game

// SessionRegistry maps each logged in identity to the one session that owns
// it.
type SessionRegistry struct {
	owners map[Identity]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{owners: map[Identity]string{}}
}

// Admit makes sessionId the owner of id. When a different session owned id
// it is returned as superseded so the caller can evict it.
func (r *SessionRegistry) Admit(id Identity, sessionId string) (superseded string, ok bool) {
	prev, exists := r.owners[id]
	r.owners[id] = sessionId
	if exists && prev != sessionId {
		return prev, true
	}
	return "", false
}

// Release drops the mapping for id only while sessionId still owns it, so a
// late disconnect from an evicted session cannot unseat its replacement.
func (r *SessionRegistry) Release(id Identity, sessionId string) bool {
	if r.owners[id] != sessionId {
		return false
	}
	delete(r.owners, id)
	return true
}

// Owner returns the session currently owning id.
func (r *SessionRegistry) Owner(id Identity) (string, bool) {
	s, ok := r.owners[id]
	return s, ok
}

func (r *SessionRegistry) Len() int {
	return len(r.owners)
}
