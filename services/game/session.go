package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	game_constants "Skirmish/constants/game"
)

// Config is the static description of one session.
type Config struct {
	CodeName    string
	Name        string
	Description string

	// MinPlayers gates the countdown; CountdownSeconds is the full count.
	// Zero values fall back to the game constants.
	MinPlayers       int
	CountdownSeconds int
}

// Deps are the collaborators a session needs. Arena, Messenger, Economy,
// Payouts and Host must be provided; Scheduler, Factory and Admission get
// sensible defaults when nil.
type Deps struct {
	Arena     ArenaManager
	Messenger Messenger
	Economy   Economy
	Payouts   PayoutTemplate
	Host      ProcessHost
	Scheduler Scheduler
	Factory   PlayerFactory
	Admission AdmissionPolicy
}

/*
 * Game is the lifecycle controller for a single session: it owns the global
 * status, the participant registry and the reconnection windows, and drives
 * the transition from waiting-for-players through active play to
 * termination.
 *
 * One mutex guards everything. Scheduler callbacks (countdown tick, window
 * expiry, end-of-game triggers) run on their own goroutines and re-acquire
 * it; collaborator calls happen with the lock held and are fire-and-forget,
 * so collaborators must never call back into the Game synchronously.
 */
type Game struct {
	mu sync.Mutex

	cfg  Config
	deps Deps

	status    Status
	startTime int64 // unix millis; -1 until the session starts

	registry  *Registry
	windows   map[string]*reconnectWindow
	countdown *countdown
	endTasks  []Task

	// injectable clock for the timer tests
	now func() time.Time
}

func New(cfg Config, deps Deps) *Game {
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = game_constants.MinPlayersToStart
	}
	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = game_constants.CountdownSeconds
	}
	if deps.Scheduler == nil {
		deps.Scheduler = NewScheduler()
	}
	if deps.Factory == nil {
		deps.Factory = DefaultPlayerFactory
	}
	if deps.Admission == nil {
		deps.Admission = AllowAll{}
	}

	return &Game{
		cfg:       cfg,
		deps:      deps,
		status:    StatusWaitingForPlayers,
		startTime: -1,
		registry:  NewRegistry(),
		windows:   make(map[string]*reconnectWindow),
		now:       time.Now,
	}
}

// HandlePostRegistration is called once the hosting process has registered
// the session with the arena; it wires the pre-game countdown.
func (g *Game) HandlePostRegistration() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startCountdownLocked()
}

// StartGame transitions the session from waiting to in_game. Only legal
// while waiting for players: a second call is rejected without side effects
// and the recorded start time never changes.
func (g *Game) StartGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startGameLocked()
}

func (g *Game) startGameLocked() error {
	if g.status != StatusWaitingForPlayers {
		return fmt.Errorf("%w: cannot start from status %q", ErrInvalidTransition, g.status)
	}

	g.startTime = g.now().UnixMilli()
	g.stopCountdownLocked()
	g.setStatusLocked(StatusInGame)

	log.Printf("[SESSION] Game %s started with %d players", g.cfg.CodeName, g.registry.ConnectedCount())
	g.deps.Messenger.NotifyGameStart()
	return nil
}

// SetStatus is the unconditional setter, also used internally. Every status
// mutation refreshes the advertised arena slots.
func (g *Game) SetStatus(status Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setStatusLocked(status)
}

func (g *Game) setStatusLocked(status Status) {
	g.status = status
	g.deps.Arena.Refresh()
}

// HandleLogin registers a first-time (non-reconnecting) participant. A
// factory failure is logged and reported, but the session keeps running;
// the participant just has no record.
func (g *Game) HandleLogin(username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.deps.Factory(username, RoleRegular)
	if err != nil {
		log.Printf("[LOGIN-ERROR] Building record for %s: %v", username, err)
		return fmt.Errorf("%w: %v", ErrConstruction, err)
	}

	p.HandleLogin(false)
	g.registry.Add(p)

	log.Printf("[LOGIN] %s joined session %s", username, g.cfg.CodeName)
	g.deps.Messenger.NotifyJoin(username)
	return nil
}

// HandleModeratorLogin registers a moderator. Moderators always spectate
// and are hidden from every currently connected participant; the hide is a
// one-time broadcast, not persisted state.
func (g *Game) HandleModeratorLogin(username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.deps.Factory(username, RoleModerator)
	if err != nil {
		log.Printf("[LOGIN-ERROR] Building moderator record for %s: %v", username, err)
		return fmt.Errorf("%w: %v", ErrConstruction, err)
	}

	p.SetSpectator()
	p.HandleLogin(false)
	g.registry.Add(p)

	viewers := g.registry.OnlineUsernames()
	log.Printf("[LOGIN] Moderator %s joined session %s (hidden from %d players)",
		username, g.cfg.CodeName, len(viewers))
	g.deps.Messenger.HideModerator(username, viewers)
	return nil
}

// HandleLogout processes a disconnect at any time. Once the session is
// finished this is a guaranteed no-op: the end-of-game sequence owns all
// remaining cleanup.
func (g *Game) HandleLogout(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusFinished {
		return
	}

	p := g.registry.Get(username)
	if p == nil {
		return
	}

	if !p.IsSpectator() {
		if g.status == StatusInGame && g.deps.Arena.IsReconnectAllowed(username) {
			remaining := g.reconnectRemainingLocked()
			p.SetConnection(ConnectionReconnectable)
			g.openReconnectWindowLocked(username, remaining)
			log.Printf("[LOGOUT] %s disconnected from %s, %s left to reconnect",
				username, g.cfg.CodeName, remaining)
			g.deps.Messenger.NotifyDisconnected(username, remaining)
		} else {
			p.SetConnection(ConnectionLeft)
			log.Printf("[LOGOUT] %s quit session %s", username, g.cfg.CodeName)
			g.deps.Messenger.NotifyQuit(username)
		}
	} else {
		// Spectators get no grace window; leaving is final for them.
		p.SetConnection(ConnectionLeft)
	}

	p.HandleLogout()

	// Records are only retained across disconnects during active play.
	if g.status != StatusInGame {
		g.registry.Remove(username)
	}

	g.deps.Arena.Refresh()
}

// HandleReconnect processes a participant coming back within their grace
// window. A window that already expired stays expired: the participant
// returns as a spectator.
func (g *Game) HandleReconnect(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.registry.Get(username)
	if p == nil {
		return
	}

	g.deps.Messenger.NotifyReconnected(username)

	if w := g.windows[username]; w != nil && w.claim() {
		w.cancel()
		delete(g.windows, username)
	}

	// Defensive re-assertion: non-moderator spectators stay spectators.
	if p.IsSpectator() && !p.IsModerator() {
		p.SetSpectator()
	}

	p.SetConnection(ConnectionOnline)
	p.HandleLogin(true)
	log.Printf("[RECONNECT] %s is back in session %s", username, g.cfg.CodeName)
}

// HandleReconnectTimeOut forces a participant whose window expired into
// spectator mode. They can no longer play but may still observe.
func (g *Game) HandleReconnectTimeOut(username string, silent bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handleReconnectTimeoutLocked(username, silent)
}

func (g *Game) handleReconnectTimeoutLocked(username string, silent bool) {
	p := g.registry.Get(username)
	if p == nil {
		return
	}

	p.SetSpectator()
	log.Printf("[RECONNECT-TIMEOUT] %s can no longer rejoin session %s", username, g.cfg.CodeName)

	if !silent {
		g.deps.Messenger.NotifyReconnectTimeout(username)
	}
}

// HandleGameEnd marks the session finished and schedules the three
// termination triggers: payouts at +3s, forced disconnects at +10s, stat
// finalization and process termination at +15s. Each fires exactly once,
// independent of whatever happens to the session state in between.
func (g *Game) HandleGameEnd() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusFinished {
		return fmt.Errorf("%w: session already finished", ErrInvalidTransition)
	}

	g.setStatusLocked(StatusFinished)
	log.Printf("[GAME-END] Session %s finished, scheduling termination sequence", g.cfg.CodeName)

	// Reconnection is over; open grace windows die with the session.
	for _, w := range g.windows {
		w.cancel()
	}
	g.windows = make(map[string]*reconnectWindow)

	sched := g.deps.Scheduler
	g.endTasks = append(g.endTasks,
		sched.After(game_constants.PayoutDelay, g.payoutStep),
		sched.After(game_constants.KickDelay, g.kickStep),
		sched.After(game_constants.ShutdownDelay, g.shutdownStep),
	)
	return nil
}

func (g *Game) payoutStep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for username, p := range g.registry.RegisteredPlayers() {
		if p.Connection() != ConnectionOnline {
			continue
		}
		g.deps.Payouts.ApplyEndOfGamePayout(username, p.Coins(), p.Stars())
		g.deps.Economy.IncrementStat(username, game_constants.StatPlayedGames, 1)
	}
	log.Printf("[GAME-END] Payouts dispatched for session %s", g.cfg.CodeName)
}

func (g *Game) kickStep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, username := range g.registry.OnlineUsernames() {
		g.deps.Arena.Kick(username, "")
	}
	log.Printf("[GAME-END] Remaining connections kicked for session %s", g.cfg.CodeName)
}

func (g *Game) shutdownStep() {
	log.Printf("[GAME-END] Finalizing stats and terminating host for session %s", g.cfg.CodeName)
	g.deps.Economy.FinalizeStats()
	g.deps.Host.TerminateProcess()
}

// Shutdown cancels every outstanding scheduled task. Used when the hosting
// process goes down outside the normal end-of-game path.
func (g *Game) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopCountdownLocked()
	for _, w := range g.windows {
		w.cancel()
	}
	g.windows = make(map[string]*reconnectWindow)
	for _, task := range g.endTasks {
		task.Cancel()
	}
	g.endTasks = nil
}

// AddCoins credits coins to a participant's in-session tally, or straight
// to their persistent profile when they have no record here.
func (g *Game) AddCoins(username string, amount int, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p := g.registry.Get(username); p != nil {
		p.AddCoins(amount)
		return
	}
	g.deps.Economy.CreditCoins(username, amount, reason, true)
}

// AddStars credits stars, same offline fallback as AddCoins.
func (g *Game) AddStars(username string, amount int, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p := g.registry.Get(username); p != nil {
		p.AddStars(amount)
		return
	}
	g.deps.Economy.CreditStars(username, amount, reason, true)
}

// IncreaseStat bumps a named statistic on the participant's profile.
func (g *Game) IncreaseStat(username string, stat string, amount int) {
	g.deps.Economy.IncrementStat(username, stat, amount)
}

// SetSpectator marks a participant as spectator. No-op for unknown names.
func (g *Game) SetSpectator(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p := g.registry.Get(username); p != nil {
		p.SetSpectator()
	}
}

// CanJoin asks the admission policy whether a login may proceed.
func (g *Game) CanJoin(username string, reconnect bool) (bool, string) {
	return g.deps.Admission.CanJoin(username, reconnect)
}

// CanPartyJoin asks the admission policy about a whole party at once.
func (g *Game) CanPartyJoin(usernames []string) (bool, string) {
	return g.deps.Admission.CanPartyJoin(usernames)
}

func (g *Game) CodeName() string    { return g.cfg.CodeName }
func (g *Game) Name() string        { return g.cfg.Name }
func (g *Game) Description() string { return g.cfg.Description }

func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// StartTime returns the session start as unix millis, -1 before the start.
func (g *Game) StartTime() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startTime
}

func (g *Game) IsStarted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status.Started()
}

func (g *Game) HasPlayer(username string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Has(username)
}

// Player returns the record for a username, nil when absent.
func (g *Game) Player(username string) Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Get(username)
}

// IsSpectator reports whether the participant spectates; unknown usernames
// are not spectators.
func (g *Game) IsSpectator(username string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.registry.Get(username)
	return p != nil && p.IsSpectator()
}

func (g *Game) InGamePlayers() map[string]Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.InGamePlayers()
}

func (g *Game) SpectatorPlayers() map[string]Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.SpectatorPlayers()
}

func (g *Game) VisibleSpectatorPlayers() map[string]Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.VisibleSpectatorPlayers()
}

func (g *Game) RegisteredPlayers() map[string]Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.RegisteredPlayers()
}

func (g *Game) ConnectedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.ConnectedCount()
}
