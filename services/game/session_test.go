package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------

// fakeScheduler only runs tasks when the test advances its clock, so the
// countdown and the end-of-game triggers become deterministic.
type fakeScheduler struct {
	now   time.Duration
	tasks []*fakeTask
}

type fakeTask struct {
	next      time.Duration
	interval  time.Duration // 0 for one-shot tasks
	fn        func()
	cancelled bool
	done      bool
}

func (t *fakeTask) Cancel() { t.cancelled = true }

func (s *fakeScheduler) After(d time.Duration, fn func()) Task {
	t := &fakeTask{next: s.now + d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) Task {
	t := &fakeTask{next: s.now + interval, interval: interval, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the fake clock forward, firing due tasks in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var due *fakeTask
		for _, t := range s.tasks {
			if t.cancelled || t.done || t.next > target {
				continue
			}
			if due == nil || t.next < due.next {
				due = t
			}
		}
		if due == nil {
			break
		}
		s.now = due.next
		if due.interval > 0 {
			due.next += due.interval
		} else {
			due.done = true
		}
		due.fn()
	}
	s.now = target
}

type fakeArena struct {
	refreshes        int
	reconnectAllowed bool
	maxMinutes       int
	kicked           []string
}

func (a *fakeArena) Refresh() { a.refreshes++ }

func (a *fakeArena) IsReconnectAllowed(username string) bool { return a.reconnectAllowed }

func (a *fakeArena) MaxReconnectMinutes() int { return a.maxMinutes }

func (a *fakeArena) Kick(username, reason string) { a.kicked = append(a.kicked, username) }

type fakeMessenger struct {
	gameStarts   int
	countdowns   []int
	joins        []string
	quits        []string
	reconnects   []string
	timeouts     []string
	disconnected map[string]time.Duration
	hidden       map[string][]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		disconnected: make(map[string]time.Duration),
		hidden:       make(map[string][]string),
	}
}

func (m *fakeMessenger) NotifyGameStart() { m.gameStarts++ }

func (m *fakeMessenger) NotifyCountdown(seconds int) { m.countdowns = append(m.countdowns, seconds) }

func (m *fakeMessenger) NotifyJoin(username string) { m.joins = append(m.joins, username) }

func (m *fakeMessenger) NotifyQuit(username string) { m.quits = append(m.quits, username) }
func (m *fakeMessenger) NotifyReconnected(username string) {
	m.reconnects = append(m.reconnects, username)
}
func (m *fakeMessenger) NotifyReconnectTimeout(username string) {
	m.timeouts = append(m.timeouts, username)
}
func (m *fakeMessenger) NotifyDisconnected(username string, remaining time.Duration) {
	m.disconnected[username] = remaining
}
func (m *fakeMessenger) HideModerator(moderator string, viewers []string) {
	m.hidden[moderator] = viewers
}

type statIncrement struct {
	username string
	stat     string
	amount   int
}

type fakeEconomy struct {
	coins     map[string]int
	stars     map[string]int
	stats     []statIncrement
	finalized int
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{coins: make(map[string]int), stars: make(map[string]int)}
}

func (e *fakeEconomy) CreditCoins(username string, amount int, reason string, offline bool) {
	e.coins[username] += amount
}
func (e *fakeEconomy) CreditStars(username string, amount int, reason string, offline bool) {
	e.stars[username] += amount
}
func (e *fakeEconomy) IncrementStat(username, stat string, amount int) {
	e.stats = append(e.stats, statIncrement{username, stat, amount})
}
func (e *fakeEconomy) FinalizeStats() { e.finalized++ }

type payout struct {
	username     string
	coins, stars int
}

type fakePayouts struct {
	payouts []payout
}

func (p *fakePayouts) ApplyEndOfGamePayout(username string, coins, stars int) {
	p.payouts = append(p.payouts, payout{username, coins, stars})
}

type fakeHost struct {
	terminations int
}

func (h *fakeHost) TerminateProcess() { h.terminations++ }

type testFixture struct {
	game      *Game
	scheduler *fakeScheduler
	arena     *fakeArena
	messenger *fakeMessenger
	economy   *fakeEconomy
	payouts   *fakePayouts
	host      *fakeHost
	clock     time.Time
}

func newTestGame(cfg Config) *testFixture {
	f := &testFixture{
		scheduler: &fakeScheduler{},
		arena:     &fakeArena{reconnectAllowed: true, maxMinutes: 2},
		messenger: newFakeMessenger(),
		economy:   newFakeEconomy(),
		payouts:   &fakePayouts{},
		host:      &fakeHost{},
		clock:     time.UnixMilli(1_000_000_000),
	}
	f.game = New(cfg, Deps{
		Arena:     f.arena,
		Messenger: f.messenger,
		Economy:   f.economy,
		Payouts:   f.payouts,
		Host:      f.host,
		Scheduler: f.scheduler,
	})
	f.game.now = func() time.Time { return f.clock }
	return f
}

// ---------------------------------------------------------------
// Registry / login behaviour
// ---------------------------------------------------------------

func TestLoginRegistersPlayerExactlyOnce(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})

	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("alice"))

	registered := f.game.RegisteredPlayers()
	assert.Len(t, registered, 1)
	assert.Contains(t, registered, "alice")

	// Scenario A: a fresh login lands in the in-game view, not the
	// spectator ones.
	assert.Contains(t, f.game.InGamePlayers(), "alice")
	assert.Empty(t, f.game.SpectatorPlayers())
	assert.Empty(t, f.game.VisibleSpectatorPlayers())
	assert.Equal(t, []string{"alice", "alice"}, f.messenger.joins)
}

func TestFactoryFailureLeavesSessionRunning(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	f.game.deps.Factory = func(username string, role Role) (Participant, error) {
		return nil, errors.New("boom")
	}

	err := f.game.HandleLogin("alice")
	assert.ErrorIs(t, err, ErrConstruction)

	// No record, no join notification, everything else keeps working.
	assert.False(t, f.game.HasPlayer("alice"))
	assert.Empty(t, f.messenger.joins)
	assert.Equal(t, StatusWaitingForPlayers, f.game.Status())
}

func TestModeratorIsHiddenSpectator(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})

	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleModeratorLogin("mod"))

	// Moderators spectate but never show up in the visible spectator list.
	assert.Contains(t, f.game.SpectatorPlayers(), "mod")
	assert.NotContains(t, f.game.VisibleSpectatorPlayers(), "mod")
	assert.NotContains(t, f.game.InGamePlayers(), "mod")
	assert.True(t, f.game.IsSpectator("mod"))

	// The hide broadcast reached the player who was already connected.
	assert.Equal(t, []string{"alice"}, f.messenger.hidden["mod"])
}

func TestViewsPartitionRegisteredPlayers(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})

	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("bob"))
	assert.NoError(t, f.game.HandleLogin("carol"))
	assert.NoError(t, f.game.HandleModeratorLogin("mod"))
	f.game.SetSpectator("carol")

	assert.NoError(t, f.game.StartGame())

	// bob quits for good (reconnection disabled)
	f.arena.reconnectAllowed = false
	f.game.HandleLogout("bob")

	inGame := f.game.InGamePlayers()
	spectators := f.game.SpectatorPlayers()

	// in-game and spectators are disjoint and together cover every record
	// that is not permanently gone.
	for username := range inGame {
		assert.NotContains(t, spectators, username)
	}
	assert.Len(t, inGame, 1) // alice
	assert.Len(t, spectators, 2)
	assert.Contains(t, spectators, "carol")
	assert.Contains(t, spectators, "mod")
	assert.Equal(t, 1, f.game.ConnectedCount())

	// bob's record survives the in-game logout for bookkeeping, but no view
	// exposes it.
	assert.True(t, f.game.HasPlayer("bob"))
	assert.NotContains(t, inGame, "bob")
	assert.NotContains(t, spectators, "bob")
	assert.Equal(t, []string{"bob"}, f.messenger.quits)
}

// ---------------------------------------------------------------
// State machine
// ---------------------------------------------------------------

func TestStartGameSecondCallRejectedWithoutEffects(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	f.game.HandlePostRegistration()

	assert.NoError(t, f.game.StartGame())
	startedAt := f.game.StartTime()
	assert.Equal(t, f.clock.UnixMilli(), startedAt)
	assert.Equal(t, StatusInGame, f.game.Status())
	assert.True(t, f.game.IsStarted())

	f.clock = f.clock.Add(5 * time.Second)
	err := f.game.StartGame()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// No second notification, start time untouched.
	assert.Equal(t, 1, f.messenger.gameStarts)
	assert.Equal(t, startedAt, f.game.StartTime())
}

func TestEveryStatusMutationRefreshesArena(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})

	before := f.arena.refreshes
	assert.NoError(t, f.game.StartGame())
	f.game.SetStatus(StatusRebooting)

	assert.Equal(t, before+2, f.arena.refreshes)
	assert.Equal(t, StatusRebooting, f.game.Status())
	assert.True(t, f.game.IsStarted())
}

func TestCountdownStartsGameWhenEnoughPlayers(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish", MinPlayers: 2, CountdownSeconds: 3})
	f.game.HandlePostRegistration()

	// Only one player: the count holds at the top.
	assert.NoError(t, f.game.HandleLogin("alice"))
	f.scheduler.Advance(5 * time.Second)
	assert.Empty(t, f.messenger.countdowns)
	assert.Equal(t, StatusWaitingForPlayers, f.game.Status())

	assert.NoError(t, f.game.HandleLogin("bob"))
	f.scheduler.Advance(3 * time.Second)

	assert.Equal(t, []int{2, 1, 0}, f.messenger.countdowns)
	assert.Equal(t, StatusInGame, f.game.Status())
	assert.Equal(t, 1, f.messenger.gameStarts)

	// The cancelled ticker never fires again.
	f.scheduler.Advance(10 * time.Second)
	assert.Equal(t, []int{2, 1, 0}, f.messenger.countdowns)
}

func TestCountdownResetsWhenPlayersDrop(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish", MinPlayers: 2, CountdownSeconds: 5})
	f.game.HandlePostRegistration()

	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("bob"))
	f.scheduler.Advance(2 * time.Second)
	assert.Equal(t, []int{4, 3}, f.messenger.countdowns)

	f.game.HandleLogout("bob")
	f.scheduler.Advance(2 * time.Second)

	// Count went back to the top instead of continuing down.
	assert.Equal(t, []int{4, 3}, f.messenger.countdowns)
	assert.Equal(t, StatusWaitingForPlayers, f.game.Status())
}

// ---------------------------------------------------------------
// Reconnection windows
// ---------------------------------------------------------------

func TestDisconnectGraceMeasuredFromSessionStart(t *testing.T) {
	// Scenario B: 2 minute grace, session started 119s ago, so the player
	// who disconnects now has about 1s left.
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())

	f.clock = f.clock.Add(119 * time.Second)
	f.scheduler.Advance(119 * time.Second)
	f.game.HandleLogout("alice")

	assert.Equal(t, 1*time.Second, f.messenger.disconnected["alice"])
	assert.Contains(t, f.game.InGamePlayers(), "alice")
	assert.Equal(t, ConnectionReconnectable, f.game.Player("alice").Connection())

	// No reconnect: the window expires and alice becomes a spectator.
	f.scheduler.Advance(2 * time.Second)
	assert.NotContains(t, f.game.InGamePlayers(), "alice")
	assert.True(t, f.game.IsSpectator("alice"))
	assert.Equal(t, []string{"alice"}, f.messenger.timeouts)
}

func TestLateDisconnectGetsNoGrace(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())

	// Disconnect well past the whole grace period.
	f.clock = f.clock.Add(10 * time.Minute)
	f.game.HandleLogout("alice")

	assert.Equal(t, time.Duration(0), f.messenger.disconnected["alice"])
	f.scheduler.Advance(time.Millisecond)
	assert.True(t, f.game.IsSpectator("alice"))
}

func TestReconnectWithinWindow(t *testing.T) {
	// Scenario C: the player comes back in time, the pending timeout must
	// become a no-op.
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())

	f.game.HandleLogout("alice")
	f.scheduler.Advance(30 * time.Second)
	f.game.HandleReconnect("alice")

	assert.Equal(t, ConnectionOnline, f.game.Player("alice").Connection())
	assert.False(t, f.game.IsSpectator("alice"))
	assert.Equal(t, []string{"alice"}, f.messenger.reconnects)

	// The cancelled window never fires.
	f.scheduler.Advance(10 * time.Minute)
	assert.False(t, f.game.IsSpectator("alice"))
	assert.Empty(t, f.messenger.timeouts)
}

func TestReconnectAfterExpiryKeepsTimeoutOutcome(t *testing.T) {
	// The race resolves to exactly one outcome: here the timeout won, so
	// the returning player observes as a spectator.
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())

	f.game.HandleLogout("alice")
	f.scheduler.Advance(3 * time.Minute)
	assert.True(t, f.game.IsSpectator("alice"))
	assert.Equal(t, []string{"alice"}, f.messenger.timeouts)

	f.game.HandleReconnect("alice")
	assert.Equal(t, ConnectionOnline, f.game.Player("alice").Connection())
	assert.True(t, f.game.IsSpectator("alice"))
	assert.Equal(t, []string{"alice"}, f.messenger.timeouts)
}

func TestReconnectClaimIsExclusive(t *testing.T) {
	w := &reconnectWindow{username: "alice"}
	assert.True(t, w.claim())
	assert.False(t, w.claim())
}

// ---------------------------------------------------------------
// End of game
// ---------------------------------------------------------------

func TestEndOfGameSequence(t *testing.T) {
	// Scenario D: payouts at +3s for still-online players only, kicks at
	// +10s, stats finalization and process termination at +15s.
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("bob"))
	assert.NoError(t, f.game.HandleLogin("carol"))
	assert.NoError(t, f.game.StartGame())

	f.game.AddCoins("alice", 40, "kills")
	f.game.AddStars("alice", 2, "victory")

	// carol leaves for good before the end
	f.arena.reconnectAllowed = false
	f.game.HandleLogout("carol")

	assert.NoError(t, f.game.HandleGameEnd())
	assert.Equal(t, StatusFinished, f.game.Status())

	// Status changes after end must not disturb the scheduled triggers.
	f.game.SetStatus(StatusRebooting)

	f.scheduler.Advance(3 * time.Second)
	assert.Len(t, f.payouts.payouts, 2)
	assert.Contains(t, f.payouts.payouts, payout{"alice", 40, 2})
	assert.Contains(t, f.payouts.payouts, payout{"bob", 0, 0})
	assert.Len(t, f.economy.stats, 2)
	assert.Empty(t, f.arena.kicked)
	assert.Zero(t, f.host.terminations)

	f.scheduler.Advance(7 * time.Second)
	assert.ElementsMatch(t, []string{"alice", "bob"}, f.arena.kicked)
	assert.Zero(t, f.host.terminations)

	f.scheduler.Advance(5 * time.Second)
	assert.Equal(t, 1, f.economy.finalized)
	assert.Equal(t, 1, f.host.terminations)

	// Nothing fires twice.
	f.scheduler.Advance(time.Minute)
	assert.Len(t, f.payouts.payouts, 2)
	assert.Len(t, f.arena.kicked, 2)
	assert.Equal(t, 1, f.host.terminations)
}

func TestHandleGameEndTwiceRejected(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.StartGame())
	assert.NoError(t, f.game.HandleGameEnd())

	err := f.game.HandleGameEnd()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Only one sequence was scheduled.
	f.scheduler.Advance(20 * time.Second)
	assert.Equal(t, 1, f.host.terminations)
	assert.Equal(t, 1, f.economy.finalized)
}

func TestGameEndCancelsReconnectWindows(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("bob"))
	assert.NoError(t, f.game.StartGame())

	f.game.HandleLogout("bob")
	assert.Equal(t, ConnectionReconnectable, f.game.Player("bob").Connection())

	assert.NoError(t, f.game.HandleGameEnd())

	// The window timer must be cancelled outright, not merely guarded:
	// advancing past its deadline fires nothing.
	f.scheduler.Advance(5 * time.Minute)
	assert.Empty(t, f.messenger.timeouts)
	assert.False(t, f.game.IsSpectator("bob"))

	snap := f.game.Snapshot()
	for _, p := range snap.Participants {
		assert.Zero(t, p.ReconnectDeadline)
	}
}

func TestLogoutAfterFinishIsNoop(t *testing.T) {
	// Scenario E
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())
	assert.NoError(t, f.game.HandleGameEnd())

	refreshes := f.arena.refreshes
	f.game.HandleLogout("alice")

	assert.True(t, f.game.HasPlayer("alice"))
	assert.Equal(t, ConnectionOnline, f.game.Player("alice").Connection())
	assert.Empty(t, f.messenger.quits)
	assert.Empty(t, f.messenger.disconnected)
	assert.Equal(t, refreshes, f.arena.refreshes)
}

func TestShutdownCancelsScheduledWork(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	f.game.HandlePostRegistration()
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.StartGame())
	f.game.HandleLogout("alice")
	assert.NoError(t, f.game.HandleGameEnd())

	f.game.Shutdown()
	f.scheduler.Advance(time.Hour)

	assert.Zero(t, f.host.terminations)
	assert.Empty(t, f.arena.kicked)
	assert.Empty(t, f.messenger.timeouts)

	// Shutdown twice is fine.
	f.game.Shutdown()
}

// ---------------------------------------------------------------
// Economy fallbacks and admission
// ---------------------------------------------------------------

func TestCreditFallsBackToOfflineProfile(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))

	f.game.AddCoins("alice", 10, "kills")
	f.game.AddCoins("ghost", 5, "consolation")
	f.game.AddStars("ghost", 1, "consolation")

	assert.Equal(t, 10, f.game.Player("alice").Coins())
	assert.Zero(t, f.economy.coins["alice"])
	assert.Equal(t, 5, f.economy.coins["ghost"])
	assert.Equal(t, 1, f.economy.stars["ghost"])
}

type denyPolicy struct{}

func (denyPolicy) CanJoin(username string, reconnect bool) (bool, string) {
	return false, "session is full"
}
func (denyPolicy) CanPartyJoin(usernames []string) (bool, string) {
	return false, "party too large"
}

func TestAdmissionPolicy(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})

	allowed, reason := f.game.CanJoin("alice", false)
	assert.True(t, allowed)
	assert.Empty(t, reason)
	allowed, _ = f.game.CanPartyJoin([]string{"alice", "bob"})
	assert.True(t, allowed)

	f.game.deps.Admission = denyPolicy{}
	allowed, reason = f.game.CanJoin("alice", false)
	assert.False(t, allowed)
	assert.Equal(t, "session is full", reason)
	allowed, reason = f.game.CanPartyJoin([]string{"alice", "bob"})
	assert.False(t, allowed)
	assert.Equal(t, "party too large", reason)
}

func TestSnapshotReflectsSessionState(t *testing.T) {
	f := newTestGame(Config{CodeName: "skirmish"})
	assert.NoError(t, f.game.HandleLogin("alice"))
	assert.NoError(t, f.game.HandleLogin("bob"))
	assert.NoError(t, f.game.StartGame())
	f.game.HandleLogout("bob")

	snap := f.game.Snapshot()
	assert.Equal(t, "skirmish", snap.CodeName)
	assert.Equal(t, string(StatusInGame), snap.Status)
	assert.Equal(t, f.game.StartTime(), snap.StartTime)
	assert.Equal(t, 2, snap.PlayerCount)
	assert.Len(t, snap.Participants, 2)

	for _, p := range snap.Participants {
		if p.Username == "bob" {
			assert.Equal(t, string(ConnectionReconnectable), p.Connection)
			assert.NotZero(t, p.ReconnectDeadline)
		}
	}
}
