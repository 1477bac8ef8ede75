package escalation

import (
	"database/sql"
	"fmt"
	"sync"
)

// regionEngine pairs an engine with its region id.
type regionEngine struct {
	Region string
	Engine *Engine
}

// RegionManager holds one escalation engine per deployment region. All
// regions share the fixed fact schema; only their rule sets differ.
type RegionManager struct {
	engines map[string]*regionEngine
	db      *sql.DB
	mu      sync.RWMutex
}

// NewRegionManager creates a manager over the given database.
func NewRegionManager(db *sql.DB) *RegionManager {
	return &RegionManager{
		engines: make(map[string]*regionEngine),
		db:      db,
	}
}

// LoadAllRegions initializes an engine for every region present in the
// database. Regions without rules still get an engine so their rule
// CRUD works immediately.
func (m *RegionManager) LoadAllRegions() error {
	rows, err := m.db.Query(`SELECT id FROM regions ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to fetch regions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return fmt.Errorf("failed to scan region row: %w", err)
		}
		if err := m.CreateRegion(region); err != nil {
			return fmt.Errorf("failed to initialize region %s: %w", region, err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating region rows: %w", err)
	}

	return nil
}

// CreateRegion builds and registers an engine for a region, compiling
// its stored rules.
func (m *RegionManager) CreateRegion(region string) error {
	store := NewPostgresRuleStore(m.db, region)
	engine, err := NewEngine(store)
	if err != nil {
		return fmt.Errorf("failed to create engine for region %s: %w", region, err)
	}

	m.mu.Lock()
	m.engines[region] = &regionEngine{Region: region, Engine: engine}
	m.mu.Unlock()

	return nil
}

// GetEngine retrieves the engine for a region.
func (m *RegionManager) GetEngine(region string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	re, exists := m.engines[region]
	if !exists {
		return nil, fmt.Errorf("region %s not found", region)
	}
	return re.Engine, nil
}

// ReloadRegion rebuilds a region's engine from the database and swaps
// it in atomically, so rule edits made outside the API take effect
// without downtime.
func (m *RegionManager) ReloadRegion(region string) error {
	store := NewPostgresRuleStore(m.db, region)
	engine, err := NewEngine(store)
	if err != nil {
		return fmt.Errorf("failed to rebuild engine for region %s: %w", region, err)
	}

	m.mu.Lock()
	m.engines[region] = &regionEngine{Region: region, Engine: engine}
	m.mu.Unlock()

	return nil
}

// ListRegions returns all loaded region ids.
func (m *RegionManager) ListRegions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regions := make([]string, 0, len(m.engines))
	for region := range m.engines {
		regions = append(regions, region)
	}
	return regions
}

// DeleteRegion drops a region's engine from memory. Database rows are
// untouched.
func (m *RegionManager) DeleteRegion(region string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[region]; !exists {
		return fmt.Errorf("region %s not found", region)
	}

	delete(m.engines, region)
	return nil
}
