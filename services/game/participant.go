package game

// ConnectionState tracks the presence of one participant within the session.
type ConnectionState string

const (
	ConnectionOnline ConnectionState = "online"
	// ConnectionReconnectable means the participant disconnected during
	// active play and still has an open reconnection window.
	ConnectionReconnectable ConnectionState = "reconnectable"
	// ConnectionLeft is terminal; the participant can no longer rejoin.
	ConnectionLeft ConnectionState = "left"
)

type Role string

const (
	RoleRegular   Role = "regular"
	RoleModerator Role = "moderator"
)

// Participant is the per-session record kept for everyone who ever logged
// into this session. Concrete games embed BasePlayer and add their own
// per-player state; the session core only depends on this interface.
type Participant interface {
	Username() string
	Role() Role
	IsModerator() bool

	// Spectators are excluded from in-game counts. Moderators always
	// spectate. The flag never goes back to false once set.
	IsSpectator() bool
	SetSpectator()

	Connection() ConnectionState
	SetConnection(state ConnectionState)

	// In-session currency tallies, paid out by the end-of-game sequence.
	Coins() int
	Stars() int
	AddCoins(amount int)
	AddStars(amount int)

	// Lifecycle hooks for game-specific records. Called with the session
	// mutex held; keep them short.
	HandleLogin(reconnect bool)
	HandleLogout()
}

// PlayerFactory builds the concrete participant record for a session. It is
// injected at session construction so each game can supply its own record
// type without the core knowing about it.
type PlayerFactory func(username string, role Role) (Participant, error)

// DefaultPlayerFactory returns plain BasePlayer records.
func DefaultPlayerFactory(username string, role Role) (Participant, error) {
	return NewBasePlayer(username, role), nil
}

// BasePlayer is the default participant record. Exported so games can embed
// it in their own record types.
type BasePlayer struct {
	username   string
	role       Role
	spectator  bool
	connection ConnectionState
	coins      int
	stars      int
}

func NewBasePlayer(username string, role Role) *BasePlayer {
	return &BasePlayer{
		username:   username,
		role:       role,
		connection: ConnectionOnline,
	}
}

func (p *BasePlayer) Username() string { return p.username }
func (p *BasePlayer) Role() Role       { return p.role }

func (p *BasePlayer) IsModerator() bool {
	return p.role == RoleModerator
}

// Moderators spectate unconditionally, whatever the flag says.
func (p *BasePlayer) IsSpectator() bool {
	return p.spectator || p.role == RoleModerator
}

func (p *BasePlayer) SetSpectator() {
	p.spectator = true
}

func (p *BasePlayer) Connection() ConnectionState { return p.connection }

func (p *BasePlayer) SetConnection(state ConnectionState) {
	p.connection = state
}

func (p *BasePlayer) Coins() int { return p.coins }
func (p *BasePlayer) Stars() int { return p.stars }

func (p *BasePlayer) AddCoins(amount int) { p.coins += amount }
func (p *BasePlayer) AddStars(amount int) { p.stars += amount }

// Default hooks do nothing; embedding types override them.
func (p *BasePlayer) HandleLogin(reconnect bool) {}
func (p *BasePlayer) HandleLogout()              {}
