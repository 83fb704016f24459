package core

import "sync"

// Achievement ids.
const (
	AchievementPositiveMonth = "positive-month"
	AchievementActiveUser    = "active-user"
	AchievementFirstGoal     = "first-goal"
	AchievementExplorer      = "explorer"
)

// ActiveUserThreshold is the transaction count that unlocks AchievementActiveUser.
const ActiveUserThreshold = 7

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
	Color       string `json:"color"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementRule struct {
	def  Achievement
	test func(txs []Transaction, goals []Goal) bool
}

var achievementRules = []achievementRule{
	{
		def: Achievement{ID: AchievementPositiveMonth, Title: "Positive month", Description: "Earned more than you spent", Icon: IconTrendingUp, Color: "#10B981"},
		test: func(txs []Transaction, _ []Goal) bool {
			return len(txs) > 0 && TotalIncome(txs, "").Cents > TotalExpenses(txs, "").Cents
		},
	},
	{
		def: Achievement{ID: AchievementActiveUser, Title: "Active user", Description: "Recorded at least 7 transactions", Icon: IconZap, Color: "#F59E0B"},
		test: func(txs []Transaction, _ []Goal) bool {
			return len(txs) >= ActiveUserThreshold
		},
	},
	{
		def: Achievement{ID: AchievementFirstGoal, Title: "First goal reached", Description: "Completed a savings goal", Icon: IconTrophy, Color: "#8B5CF6"},
		test: func(_ []Transaction, goals []Goal) bool {
			for _, g := range goals {
				if g.Complete() {
					return true
				}
			}
			return false
		},
	},
	{
		// Feature-usage badge, granted up front.
		def:  Achievement{ID: AchievementExplorer, Title: "Explorer", Description: "Started organizing your finances", Icon: IconCompass, Color: "#3B82F6", Unlocked: true},
		test: nil,
	},
}

// AchievementSet tracks unlock state for one user. Unlocks are monotonic.
type AchievementSet struct {
	mu       sync.Mutex
	unlocked map[string]bool
}

// NewAchievementSet returns a set with only the pre-unlocked badges unlocked.
func NewAchievementSet() *AchievementSet {
	s := &AchievementSet{unlocked: make(map[string]bool)}
	for _, r := range achievementRules {
		if r.def.Unlocked {
			s.unlocked[r.def.ID] = true
		}
	}
	return s
}

// Evaluate runs every rule against the ledger and returns the achievements
// unlocked by this call. A second call on unchanged input returns nothing.
func (s *AchievementSet) Evaluate(txs []Transaction, goals []Goal) []Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []Achievement
	for _, r := range achievementRules {
		if s.unlocked[r.def.ID] || r.test == nil {
			continue
		}
		if r.test(txs, goals) {
			s.unlocked[r.def.ID] = true
			a := r.def
			a.Unlocked = true
			fresh = append(fresh, a)
		}
	}
	return fresh
}

// List returns every achievement with its current unlock state.
func (s *AchievementSet) List() []Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Achievement, 0, len(achievementRules))
	for _, r := range achievementRules {
		a := r.def
		a.Unlocked = s.unlocked[a.ID]
		out = append(out, a)
	}
	return out
}

// Unlocked reports whether the achievement id is unlocked.
func (s *AchievementSet) Unlocked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked[id]
}
