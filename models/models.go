package models

import (
	"time"

	"gorm.io/gorm"
)

// Site represents a registered WordPress origin that syncs books into the shelf
type Site struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PublicID   string    `gorm:"uniqueIndex;not null" json:"public_id"` // UUIDv4, exposed instead of the row ID
	Name       string    `gorm:"not null" json:"name"`
	URL        string    `gorm:"uniqueIndex;not null" json:"url"`
	APIKeyHash string    `gorm:"not null" json:"-"`
	APIKeySalt string    `gorm:"not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Genre is a tag attached to books; shared across sites
type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Book represents one book synced from a site
type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SiteID      uint       `gorm:"not null;index;uniqueIndex:idx_books_site_remote" json:"site_id"`
	RemoteID    uint       `gorm:"not null;uniqueIndex:idx_books_site_remote" json:"remote_id"` // WordPress post ID on the origin site
	Title       string     `gorm:"not null" json:"title"`
	Author      string     `gorm:"index" json:"author"`
	Description string     `gorm:"type:text" json:"description"` // sanitized before storage
	CoverURL    string     `gorm:"" json:"cover_url"`
	Link        string     `gorm:"" json:"link"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Genres      []Genre    `gorm:"many2many:book_genres" json:"genres"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Site Site `gorm:"foreignKey:SiteID" json:"-"`
}

// BookViewEvent is one observed view of one book. Rows are append-only:
// the ingestion path never updates or deletes them. They go away only when
// the owning book is deleted (cascade).
type BookViewEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	ViewedAt  time.Time `gorm:"not null;index;default:CURRENT_TIMESTAMP" json:"viewed_at"`
	ClientIP  *string   `json:"-"`
	UserAgent *string   `gorm:"type:text" json:"-"`

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for BookViewEvent
func (BookViewEvent) TableName() string {
	return "book_view_events"
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Site{},
		&Genre{},
		&Book{},
		&BookViewEvent{},
		&BookViewCount{},
		&BookshelfStats{},
	)
}
