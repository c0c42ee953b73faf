package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/tables"
	_ "modernc.org/sqlite"
)

// Store keeps the input and output tables of a plan in a single SQLite file.
// Output tables are replaced on every save.
type Store struct {
	db *sql.DB
}

// IsDatabasePath reports whether path names a SQLite file rather than a CSV
func IsDatabasePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// NewStore opens the database and creates the tables if needed
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS appliances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		power_w REAL NOT NULL,
		duration_h INTEGER NOT NULL DEFAULT 0,
		earliest_start INTEGER NOT NULL DEFAULT 0,
		latest_end INTEGER NOT NULL DEFAULT 24,
		priority INTEGER NOT NULL DEFAULT 3,
		flexible INTEGER NOT NULL DEFAULT 0,
		must_run INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tariffs (
		hour INTEGER PRIMARY KEY,
		tariff_per_kwh REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule (
		hour INTEGER PRIMARY KEY,
		tariff_per_kwh REAL NOT NULL,
		load_kw REAL NOT NULL,
		appliances TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cost_breakdown (
		rank INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		hours INTEGER NOT NULL,
		energy_kwh REAL NOT NULL,
		cost REAL NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveAppliances replaces the appliance table, keeping row order
func (s *Store) SaveAppliances(appliances []engine.Appliance) error {
	return s.replace("appliances", func(tx *sql.Tx) error {
		query := `INSERT INTO appliances
			(name, power_w, duration_h, earliest_start, latest_end, priority, flexible, must_run)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		for _, a := range appliances {
			if _, err := tx.Exec(query, a.Name, a.PowerW, a.DurationH, a.EarliestStart, a.LatestEnd,
				a.Priority, boolToInt(a.Flexible), boolToInt(a.MustRun)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAppliances returns the raw appliance rows in insertion order.
// Callers are expected to pass them through tables.CleanAppliances.
func (s *Store) GetAppliances() ([]engine.Appliance, error) {
	query := `SELECT name, power_w, duration_h, earliest_start, latest_end, priority, flexible, must_run
		FROM appliances ORDER BY id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appliances := []engine.Appliance{}
	for rows.Next() {
		var a engine.Appliance
		var flexibleInt, mustRunInt int

		if err := rows.Scan(&a.Name, &a.PowerW, &a.DurationH, &a.EarliestStart, &a.LatestEnd,
			&a.Priority, &flexibleInt, &mustRunInt); err != nil {
			return nil, fmt.Errorf("scanning appliance: %w", err)
		}
		a.Flexible = flexibleInt == 1
		a.MustRun = mustRunInt == 1

		appliances = append(appliances, a)
	}

	return appliances, rows.Err()
}

// SaveTariffs replaces the tariff table
func (s *Store) SaveTariffs(tariffs []tables.TariffRow) error {
	return s.replace("tariffs", func(tx *sql.Tx) error {
		for _, r := range tariffs {
			if _, err := tx.Exec(`INSERT INTO tariffs (hour, tariff_per_kwh) VALUES (?, ?)`, r.Hour, r.Price); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTariffs returns the tariff rows ordered by hour.
// Callers are expected to pass them through tables.BuildTariff.
func (s *Store) GetTariffs() ([]tables.TariffRow, error) {
	rows, err := s.db.Query(`SELECT hour, tariff_per_kwh FROM tariffs ORDER BY hour`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tariffs := []tables.TariffRow{}
	for rows.Next() {
		var r tables.TariffRow
		if err := rows.Scan(&r.Hour, &r.Price); err != nil {
			return nil, fmt.Errorf("scanning tariff: %w", err)
		}
		tariffs = append(tariffs, r)
	}

	return tariffs, rows.Err()
}

// SaveSchedule replaces the schedule table
func (s *Store) SaveSchedule(schedule []engine.ScheduleRow) error {
	return s.replace("schedule", func(tx *sql.Tx) error {
		query := `INSERT INTO schedule (hour, tariff_per_kwh, load_kw, appliances) VALUES (?, ?, ?, ?)`
		for _, r := range schedule {
			if _, err := tx.Exec(query, r.Hour, r.TariffPerKWh, r.LoadKW, r.AppliancesLabel()); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSchedule reads the schedule table back, ordered by hour
func (s *Store) GetSchedule() ([]engine.ScheduleRow, error) {
	rows, err := s.db.Query(`SELECT hour, tariff_per_kwh, load_kw, appliances FROM schedule ORDER BY hour`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedule := []engine.ScheduleRow{}
	for rows.Next() {
		var r engine.ScheduleRow
		var label string
		if err := rows.Scan(&r.Hour, &r.TariffPerKWh, &r.LoadKW, &label); err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		if label != engine.EmptySlot {
			r.Appliances = strings.Split(label, ", ")
		}
		schedule = append(schedule, r)
	}

	return schedule, rows.Err()
}

// SaveCosts replaces the cost breakdown, ranked in the given order
func (s *Store) SaveCosts(costs []engine.CostRow) error {
	return s.replace("cost_breakdown", func(tx *sql.Tx) error {
		query := `INSERT INTO cost_breakdown (rank, name, hours, energy_kwh, cost) VALUES (?, ?, ?, ?, ?)`
		for i, r := range costs {
			if _, err := tx.Exec(query, i+1, r.Name, r.Hours, r.EnergyKWh, r.Cost); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCosts reads the cost breakdown back in rank order
func (s *Store) GetCosts() ([]engine.CostRow, error) {
	rows, err := s.db.Query(`SELECT name, hours, energy_kwh, cost FROM cost_breakdown ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := []engine.CostRow{}
	for rows.Next() {
		var r engine.CostRow
		if err := rows.Scan(&r.Name, &r.Hours, &r.EnergyKWh, &r.Cost); err != nil {
			return nil, fmt.Errorf("scanning cost: %w", err)
		}
		costs = append(costs, r)
	}

	return costs, rows.Err()
}

// replace empties table and refills it in one transaction
func (s *Store) replace(table string, fill func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("saving %s: %w", table, err)
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
