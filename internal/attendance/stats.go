package attendance

import (
	"time"

	"qrattend/internal/model"
)

// Summarize derives the dashboard figures for one day. Every record on the
// day counts as present, late included. AbsentToday is not clamped.
func Summarize(students []model.Student, records []model.AttendanceRecord, today string) model.Stats {
	stats := model.Stats{Date: today, TotalStudents: len(students)}
	for _, rec := range records {
		if rec.Date != today {
			continue
		}
		stats.PresentToday++
		if rec.Status == model.StatusLate {
			stats.LateToday++
		} else {
			stats.OnTimeToday++
		}
	}
	stats.AbsentToday = stats.TotalStudents - stats.PresentToday
	if stats.TotalStudents > 0 {
		stats.AttendanceRate = float64(stats.PresentToday) / float64(stats.TotalStudents) * 100
	}
	return stats
}

// SummarizeDays computes present and absent counts for each listed day.
func SummarizeDays(students []model.Student, records []model.AttendanceRecord, days []string) []model.DayStats {
	present := make(map[string]int, len(days))
	for _, rec := range records {
		present[rec.Date]++
	}
	out := make([]model.DayStats, 0, len(days))
	for _, day := range days {
		out = append(out, model.DayStats{
			Date:    day,
			Present: present[day],
			Absent:  len(students) - present[day],
		})
	}
	return out
}

// LastNDays lists n calendar days ending with end's day, oldest first.
func LastNDays(end time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	y, m, d := end.Date()
	days := make([]string, n)
	for i := 0; i < n; i++ {
		// noon sidesteps DST transitions when stepping back whole days
		day := time.Date(y, m, d-(n-1-i), 12, 0, 0, 0, end.Location())
		days[i] = day.Format(model.DateLayout)
	}
	return days
}
