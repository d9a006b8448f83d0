package services

import (
	"log"
	"time"

	"bookshelf-service/models"

	"gorm.io/gorm"
)

// AggregationService maintains the materialized view-count and stats tables.
// Each aggregate refreshes on its own cadence; both can also be refreshed on
// demand through RefreshNow. A refresh rewrites its snapshot inside one
// transaction, so concurrent readers see either the old rows or the new
// rows, never a mix.
type AggregationService struct {
	db            *gorm.DB
	viewInterval  time.Duration
	statsInterval time.Duration
	viewTicker    *time.Ticker
	statsTicker   *time.Ticker
	done          chan bool
}

func NewAggregationService(db *gorm.DB, viewInterval, statsInterval time.Duration) *AggregationService {
	return &AggregationService{
		db:            db,
		viewInterval:  viewInterval,
		statsInterval: statsInterval,
		done:          make(chan bool),
	}
}

// Start begins the periodic refresh loops and runs one refresh immediately
func (s *AggregationService) Start() {
	log.Printf("Aggregation service started - view counts every %v, stats every %v",
		s.viewInterval, s.statsInterval)

	if err := s.RefreshNow(); err != nil {
		log.Printf("Initial aggregate refresh failed: %v", err)
	}

	s.viewTicker = time.NewTicker(s.viewInterval)
	s.statsTicker = time.NewTicker(s.statsInterval)

	go func() {
		for {
			select {
			case <-s.viewTicker.C:
				if err := s.RefreshViewCounts(); err != nil {
					log.Printf("View count refresh failed: %v", err)
				}
			case <-s.statsTicker.C:
				if err := s.RefreshStats(); err != nil {
					log.Printf("Stats refresh failed: %v", err)
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Stop halts the periodic refresh loops
func (s *AggregationService) Stop() {
	if s.viewTicker != nil {
		s.viewTicker.Stop()
	}
	if s.statsTicker != nil {
		s.statsTicker.Stop()
	}
	s.done <- true
	log.Println("Aggregation service stopped")
}

// RefreshNow refreshes both aggregates. Idempotent: repeated calls against
// unchanged event rows produce identical snapshots. Safe to call while
// readers are in flight.
func (s *AggregationService) RefreshNow() error {
	if err := s.RefreshViewCounts(); err != nil {
		return err
	}
	return s.RefreshStats()
}

// RefreshViewCounts rewrites book_view_counts from the raw event rows.
// The delete and regrouped insert share one transaction so readers never
// observe a partially rebuilt snapshot.
func (s *AggregationService) RefreshViewCounts() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_view_counts").Error; err != nil {
			return err
		}
		return tx.Exec(`
			INSERT INTO book_view_counts (book_id, count, updated_at)
			SELECT book_id, COUNT(*), CURRENT_TIMESTAMP
			FROM book_view_events
			GROUP BY book_id`).Error
	})
	if err != nil {
		return err
	}

	log.Println("View count aggregate refreshed")
	return nil
}

// RefreshStats recomputes the single-row global summary wholesale
func (s *AggregationService) RefreshStats() error {
	var totalBooks, totalAuthors, totalGenres int64

	if err := s.db.Model(&models.Book{}).Count(&totalBooks).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Book{}).Distinct("site_id").Count(&totalAuthors).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Genre{}).Count(&totalGenres).Error; err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stats models.BookshelfStats
		result := tx.First(&stats)

		if result.Error == gorm.ErrRecordNotFound {
			stats = models.BookshelfStats{
				TotalBooks:      totalBooks,
				TotalAuthors:    totalAuthors,
				TotalGenres:     totalGenres,
				LastRefreshedAt: time.Now(),
			}
			return tx.Create(&stats).Error
		} else if result.Error != nil {
			return result.Error
		}

		return tx.Model(&stats).Updates(map[string]interface{}{
			"total_books":       totalBooks,
			"total_authors":     totalAuthors,
			"total_genres":      totalGenres,
			"last_refreshed_at": time.Now(),
		}).Error
	})
	if err != nil {
		return err
	}

	log.Printf("Stats refreshed: Books=%d, Authors=%d, Genres=%d",
		totalBooks, totalAuthors, totalGenres)
	return nil
}
