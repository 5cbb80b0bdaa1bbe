package sync

import (
	models "Skirmish/models/postgres"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Economy credits currency and statistics into the persistent game profiles.
// Every method is fire-and-forget: failures are logged, never propagated back
// into the session core.
type Economy struct {
	db *gorm.DB
}

func NewEconomy(db *gorm.DB) *Economy {
	return &Economy{db: db}
}

func (e *Economy) CreditCoins(username string, amount int, reason string, offline bool) {
	result := e.db.Model(&models.GameProfile{}).Where("username = ?", username).
		Update("coins", gorm.Expr("coins + ?", amount))
	if result.Error != nil {
		log.Printf("[ECONOMY-ERROR] Crediting %d coins to %s: %v", amount, username, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		log.Printf("[ECONOMY-ERROR] No profile found for %s, dropped %d coins", username, amount)
		return
	}
	log.Printf("[ECONOMY] Credited %d coins to %s (%s, offline=%v)", amount, username, reason, offline)
}

func (e *Economy) CreditStars(username string, amount int, reason string, offline bool) {
	result := e.db.Model(&models.GameProfile{}).Where("username = ?", username).
		Update("stars", gorm.Expr("stars + ?", amount))
	if result.Error != nil {
		log.Printf("[ECONOMY-ERROR] Crediting %d stars to %s: %v", amount, username, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		log.Printf("[ECONOMY-ERROR] No profile found for %s, dropped %d stars", username, amount)
		return
	}
	log.Printf("[ECONOMY] Credited %d stars to %s (%s, offline=%v)", amount, username, reason, offline)
}

// IncrementStat bumps one counter inside the jsonb stats document.
func (e *Economy) IncrementStat(username string, stat string, amount int) {
	result := e.db.Exec(`
		UPDATE game_profiles
		SET user_stats = jsonb_set(
			COALESCE(user_stats, '{}'::jsonb),
			?::text[],
			(COALESCE(user_stats->>?, '0')::int + ?)::text::jsonb)
		WHERE username = ?`,
		fmt.Sprintf("{%s}", stat), stat, amount, username)
	if result.Error != nil {
		log.Printf("[ECONOMY-ERROR] Incrementing stat %s for %s: %v", stat, username, result.Error)
		return
	}
	log.Printf("[ECONOMY] Stat %s +%d for %s", stat, amount, username)
}

// FinalizeStats releases every profile this server still holds in a game.
// Each server hosts a single session, so the flag is server-scoped.
func (e *Economy) FinalizeStats() {
	result := e.db.Model(&models.GameProfile{}).Where("is_in_a_game = ?", true).
		Update("is_in_a_game", false)
	if result.Error != nil {
		log.Printf("[ECONOMY-ERROR] Finalizing stats: %v", result.Error)
		return
	}
	log.Printf("[ECONOMY] Finalized stats, released %d profiles", result.RowsAffected)
}

// EndGamePayout renders the end-of-game earnings into the profiles. The
// session core hands over each participant's in-session tally once.
type EndGamePayout struct {
	economy *Economy
}

func NewEndGamePayout(economy *Economy) *EndGamePayout {
	return &EndGamePayout{economy: economy}
}

func (p *EndGamePayout) ApplyEndOfGamePayout(username string, coins int, stars int) {
	if coins > 0 {
		p.economy.CreditCoins(username, coins, "End of game earnings", false)
	}
	if stars > 0 {
		p.economy.CreditStars(username, stars, "End of game earnings", false)
	}
	log.Printf("[PAYOUT] %s earned %d coins and %d stars", username, coins, stars)
}
