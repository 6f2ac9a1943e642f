package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// nextDailyNumber allocates the next value of a per-day monotonic counter and
// formats it as PREFIX-YYYYMMDD-NNNN. The upsert-and-return is a single
// statement, so concurrent callers inside separate transactions each get a
// distinct value — never "count rows then add one".
func nextDailyNumber(tx *gorm.DB, scope, prefix string, now time.Time) (string, error) {
	day := now.Format("20060102")
	var value int
	err := tx.Raw(`
		INSERT INTO number_sequences (scope, day, value) VALUES (?, ?, 1)
		ON CONFLICT (scope, day) DO UPDATE SET value = number_sequences.value + 1
		RETURNING value`, scope, day).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", scope, err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day, value), nil
}

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit
}
