// Package reports builds the read-only views of the admin dashboard from the
// user records.
package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"treasurehunt/backend/models"
)

var ErrUnknownMetric = errors.New("unknown leaderboard metric")

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Leaderboard metrics accepted by Top.
const (
	ByHighScore     = "high_score"
	ByMaxStreak     = "max_streak"
	ByPerfectLevels = "perfect_levels"
	ByTotalGames    = "total_games"
)

func Summarize(users []models.PublicUser) models.PlatformAnalytics {
	var a models.PlatformAnalytics
	a.TotalUsers = len(users)
	highScores := 0
	for _, u := range users {
		if u.SavedProgress != nil {
			a.ActiveUsers++
		}
		if u.IsActive {
			a.EnabledUsers++
		} else {
			a.DisabledUsers++
		}
		if u.GameCompletedPermanently {
			a.CompletedUsers++
		}
		a.TotalGames += u.TotalGames
		highScores += u.HighScore
	}
	if a.TotalUsers > 0 {
		a.AvgHighScore = math.Round(float64(highScores)/float64(a.TotalUsers)*100) / 100
	}
	return a
}

// Rows flattens users into table rows. Levels are shown 1-based; a player
// without saved progress is on level 1 with a neutral combo.
func Rows(users []models.PublicUser) []models.UserRow {
	rows := make([]models.UserRow, 0, len(users))
	for _, u := range users {
		row := models.UserRow{
			Username:        u.Username,
			Email:           u.Email,
			Level:           1,
			HighScore:       u.HighScore,
			ComboMultiplier: 1.0,
			TotalGames:      u.TotalGames,
			IsActive:        u.IsActive,
			Completed:       u.GameCompletedPermanently,
			LastLogin:       u.LastLogin,
			CreatedAt:       u.CreatedAt,
		}
		if p := u.SavedProgress; p != nil {
			row.Level = p.Level + 1
			row.Score = p.Score
			row.Streak = p.Streak
			row.MaxStreak = p.MaxStreak
			row.ComboMultiplier = p.ComboMultiplier
			row.PerfectLevels = p.PerfectLevels
			row.HintsUsed = p.HintsUsed
		}
		rows = append(rows, row)
	}
	return rows
}

// Query narrows the user table. Zero fields match everything.
type Query struct {
	// Search matches username or email, case-insensitively.
	Search string
	Email  string
	Level  int
	// Status is StatusActive, StatusDisabled or empty.
	Status string
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func Filter(rows []models.UserRow, q Query) []models.UserRow {
	search := strings.TrimSpace(q.Search)
	email := strings.TrimSpace(q.Email)
	out := make([]models.UserRow, 0, len(rows))
	for _, r := range rows {
		if search != "" && !containsFold(r.Username, search) && !containsFold(r.Email, search) {
			continue
		}
		if email != "" && !containsFold(r.Email, email) {
			continue
		}
		if q.Level > 0 && r.Level != q.Level {
			continue
		}
		switch q.Status {
		case StatusActive:
			if !r.IsActive {
				continue
			}
		case StatusDisabled:
			if r.IsActive {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func metricValue(r models.UserRow, by string) (int, error) {
	switch by {
	case ByHighScore:
		return r.HighScore, nil
	case ByMaxStreak:
		return r.MaxStreak, nil
	case ByPerfectLevels:
		return r.PerfectLevels, nil
	case ByTotalGames:
		return r.TotalGames, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, by)
}

// Top ranks rows by the metric, highest first, ties broken by username.
func Top(rows []models.UserRow, by string, n int) ([]models.LeaderboardEntry, error) {
	if _, err := metricValue(models.UserRow{}, by); err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		v, _ := metricValue(r, by)
		entries = append(entries, models.LeaderboardEntry{Username: r.Username, Value: v})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Username < entries[j].Username
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// LevelDistribution counts players per level, in level order.
func LevelDistribution(rows []models.UserRow) []models.LevelCount {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.Level]++
	}
	out := make([]models.LevelCount, 0, len(counts))
	for level, n := range counts {
		out = append(out, models.LevelCount{Level: level, Players: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

var csvHeader = []string{
	"Username", "Email", "Level", "Score", "High Score", "Streak", "Max Streak", "Combo",
	"Perfect Levels", "Hints Used", "Total Games", "Active", "Completed", "Last Login", "Created",
}

// csvSafe keeps spreadsheet programs from evaluating a user-supplied cell as
// a formula.
func csvSafe(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteCSV exports rows in the column order of the dashboard table. Free-text
// cells are escaped with csvSafe.
func WriteCSV(w io.Writer, rows []models.UserRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		lastLogin := "Never"
		if r.LastLogin != nil {
			lastLogin = r.LastLogin.Format("2006-01-02 15:04:05")
		}
		record := []string{
			csvSafe(r.Username),
			csvSafe(r.Email),
			strconv.Itoa(r.Level),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.HighScore),
			strconv.Itoa(r.Streak),
			strconv.Itoa(r.MaxStreak),
			fmt.Sprintf("%.1fx", r.ComboMultiplier),
			strconv.Itoa(r.PerfectLevels),
			strconv.Itoa(r.HintsUsed),
			strconv.Itoa(r.TotalGames),
			strconv.FormatBool(r.IsActive),
			strconv.FormatBool(r.Completed),
			lastLogin,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
