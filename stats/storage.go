package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats are the service counters for one calendar month.
type MonthlyStats struct {
	Analyses          int       `json:"analyses"`
	EmptyCorpus       int       `json:"empty_corpus"`
	CacheHits         int       `json:"cache_hits"`
	CacheMisses       int       `json:"cache_misses"`
	DocumentsAnalyzed int       `json:"documents_analyzed"`
	FetchSuccess      int       `json:"fetch_success"`
	FetchFallback     int       `json:"fetch_fallback"`
	FetchBlocked      int       `json:"fetch_blocked"`
	FetchNotFound     int       `json:"fetch_not_found"`
	FetchTimeout      int       `json:"fetch_timeout"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Delta is added to the current month by Record.
type Delta struct {
	Analyses          int
	EmptyCorpus       int
	CacheHits         int
	CacheMisses       int
	DocumentsAnalyzed int
	FetchSuccess      int
	FetchFallback     int
	FetchBlocked      int
	FetchNotFound     int
	FetchTimeout      int
}

// Storage keeps monthly counters in memory and persists them to a JSON file.
type Storage struct {
	mutex       sync.RWMutex
	saveMu      sync.Mutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
	logger      *slog.Logger
}

func NewStorage(dataDir string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
		logger:      logger.With("component", "stats"),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.stats)
}

// save writes through a temporary file so readers never see a partial file.
func (s *Storage) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			if err := s.save(); err != nil {
				s.logger.Error("Failed to persist stats", "error", err)
			}
			return
		}
		if err := s.save(); err != nil {
			s.logger.Error("Failed to persist stats", "error", err)
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// Record adds d to the current month.
func (s *Storage) Record(d Delta) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}

	stats.Analyses += d.Analyses
	stats.EmptyCorpus += d.EmptyCorpus
	stats.CacheHits += d.CacheHits
	stats.CacheMisses += d.CacheMisses
	stats.DocumentsAnalyzed += d.DocumentsAnalyzed
	stats.FetchSuccess += d.FetchSuccess
	stats.FetchFallback += d.FetchFallback
	stats.FetchBlocked += d.FetchBlocked
	stats.FetchNotFound += d.FetchNotFound
	stats.FetchTimeout += d.FetchTimeout
	stats.LastUpdated = s.now()

	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup keeps the current month and the retainMonths before it.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 0 {
		retainMonths = 0
	}
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]struct{}, retainMonths+1)
	for i := 0; i <= retainMonths; i++ {
		keep[first.AddDate(0, -i, 0).Format("2006-01")] = struct{}{}
	}

	s.mutex.Lock()
	removed := 0
	for key := range s.stats {
		if _, ok := keep[key]; !ok {
			delete(s.stats, key)
			removed++
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	s.logger.Debug("Cleaned up monthly stats", "removed", removed, "retainMonths", retainMonths)
}

func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths lists months newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Close stops the background writer after a final save.
func (s *Storage) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
	return nil
}
