package models

// PlatformAnalytics is the headline block of the admin dashboard.
type PlatformAnalytics struct {
	TotalUsers     int     `json:"total_users"`
	ActiveUsers    int     `json:"active_users"`
	EnabledUsers   int     `json:"enabled_users"`
	DisabledUsers  int     `json:"disabled_users"`
	CompletedUsers int     `json:"completed_users"`
	TotalGames     int     `json:"total_games"`
	AvgHighScore   float64 `json:"avg_high_score"`
}

// UserRow is one line of the admin user table.
type UserRow struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Level           int        `json:"level"` // 1-based
	Score           int        `json:"score"`
	HighScore       int        `json:"high_score"`
	Streak          int        `json:"streak"`
	MaxStreak       int        `json:"max_streak"`
	ComboMultiplier float64    `json:"combo_multiplier"`
	PerfectLevels   int        `json:"perfect_levels"`
	HintsUsed       int        `json:"hints_used"`
	TotalGames      int        `json:"total_games"`
	IsActive        bool       `json:"is_active"`
	Completed       bool       `json:"completed"`
	LastLogin       *Timestamp `json:"last_login"`
	CreatedAt       Timestamp  `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Value    int    `json:"value"`
}

type LevelCount struct {
	Level   int `json:"level"`
	Players int `json:"players"`
}
