package models

import "time"

// BookViewCount is the materialized per-book view count. It is rewritten
// wholesale by the aggregation service and may lag the raw event rows by up
// to one refresh interval. The read API always consumes this table, never
// COUNT(*) over book_view_events.
type BookViewCount struct {
	BookID    uint      `gorm:"primaryKey" json:"book_id"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for BookViewCount
func (BookViewCount) TableName() string {
	return "book_view_counts"
}

// BookshelfStats is the single-row materialized global summary, recomputed
// on its own schedule independent of BookViewCount
type BookshelfStats struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	TotalBooks      int64     `gorm:"not null;default:0" json:"total_books"`
	TotalAuthors    int64     `gorm:"not null;default:0" json:"total_authors"` // distinct site origins
	TotalGenres     int64     `gorm:"not null;default:0" json:"total_genres"`
	LastRefreshedAt time.Time `gorm:"not null" json:"last_refreshed_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"-"`
}

// TableName specifies the table name for BookshelfStats
func (BookshelfStats) TableName() string {
	return "bookshelf_stats"
}
