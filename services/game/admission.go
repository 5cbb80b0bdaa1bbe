package game

// AdmissionPolicy decides whether a login (or a whole party) may enter the
// session. The checks return the denial reason shown to the player when the
// answer is no.
type AdmissionPolicy interface {
	CanJoin(username string, reconnect bool) (bool, string)
	CanPartyJoin(usernames []string) (bool, string)
}

// AllowAll admits everyone; games plug in their own policy when they need
// slot limits, whitelists or rank gates.
type AllowAll struct{}

func (AllowAll) CanJoin(username string, reconnect bool) (bool, string) {
	return true, ""
}

func (AllowAll) CanPartyJoin(usernames []string) (bool, string) {
	return true, ""
}
