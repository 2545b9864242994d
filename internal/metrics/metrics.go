package metrics

import (
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// Counters, bumped with atomic adds by the packages doing the work.
var (
	HTTPBytesOut        int64
	HTTPRequests        int64
	MessagesSent        int64
	NotificationsFanned int64
)

type Snapshot struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Timestamp           time.Time `gorm:"index" json:"timestamp"`
	HTTPBytesOut        int64     `gorm:"default:0" json:"http_bytes_out"`
	HTTPRequests        int64     `gorm:"default:0" json:"http_requests"`
	MessagesSent        int64     `gorm:"default:0" json:"messages_sent"`
	NotificationsFanned int64     `gorm:"default:0" json:"notifications_fanned"`
	PushEventsDropped   int64     `gorm:"default:0" json:"push_events_dropped"`
	ConnectedClients    int       `gorm:"default:0" json:"connected_clients"`
}

func (Snapshot) TableName() string {
	return "metrics_snapshots"
}

// Service persists periodic counter snapshots so operators can see
// whether the push channel is dropping events and how busy messaging is.
type Service struct {
	db             *gorm.DB
	snapshotTicker *time.Ticker
	cleanupTicker  *time.Ticker
	done           chan struct{}

	// hooks into state owned elsewhere
	droppedEvents func() int64
	clientCount   func() int
}

func NewService(db *gorm.DB, interval time.Duration, droppedEvents func() int64, clientCount func() int) *Service {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{
		db:             db,
		snapshotTicker: time.NewTicker(interval),
		cleanupTicker:  time.NewTicker(24 * time.Hour),
		done:           make(chan struct{}),
		droppedEvents:  droppedEvents,
		clientCount:    clientCount,
	}
}

func (s *Service) Start() {
	go func() {
		for {
			select {
			case <-s.snapshotTicker.C:
				s.saveSnapshot()
			case <-s.cleanupTicker.C:
				s.cleanup()
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	s.snapshotTicker.Stop()
	s.cleanupTicker.Stop()
	s.saveSnapshot()
	close(s.done)
}

func (s *Service) Current() Snapshot {
	return Snapshot{
		Timestamp:           time.Now().UTC(),
		HTTPBytesOut:        atomic.LoadInt64(&HTTPBytesOut),
		HTTPRequests:        atomic.LoadInt64(&HTTPRequests),
		MessagesSent:        atomic.LoadInt64(&MessagesSent),
		NotificationsFanned: atomic.LoadInt64(&NotificationsFanned),
		PushEventsDropped:   s.droppedEvents(),
		ConnectedClients:    s.clientCount(),
	}
}

func (s *Service) saveSnapshot() {
	snapshot := s.Current()
	if err := s.db.Create(&snapshot).Error; err != nil {
		log.Printf("metrics: save snapshot: %v", err)
	}
}

func (s *Service) cleanup() {
	cutoff := time.Now().AddDate(0, 0, -7)
	result := s.db.Where("timestamp < ?", cutoff).Delete(&Snapshot{})
	if result.Error != nil {
		log.Printf("metrics: cleanup: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("metrics: cleaned up %d old snapshots", result.RowsAffected)
	}
}
