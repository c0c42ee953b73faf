package main

import (
	"fmt"

	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/store"
	"github.com/awaistahir/loadplan/internal/tables"
)

// Paths ending in .db, .sqlite or .sqlite3 are SQLite table files,
// everything else is CSV.

func readAppliances(path string) ([]engine.Appliance, error) {
	if !store.IsDatabasePath(path) {
		return tables.ReadAppliancesFile(path)
	}

	var appliances []engine.Appliance
	err := withStore(path, func(st *store.Store) error {
		var err error
		appliances, err = st.GetAppliances()
		return err
	})
	if err != nil {
		return nil, err
	}
	return tables.CleanAppliances(appliances)
}

func readTariff(path string) (engine.Tariff, error) {
	if !store.IsDatabasePath(path) {
		return tables.ReadTariffsFile(path)
	}

	var rows []tables.TariffRow
	err := withStore(path, func(st *store.Store) error {
		var err error
		rows, err = st.GetTariffs()
		return err
	})
	if err != nil {
		return engine.Tariff{}, err
	}
	return tables.BuildTariff(rows)
}

func writeSchedule(path string, rows []engine.ScheduleRow) error {
	if !store.IsDatabasePath(path) {
		return tables.WriteScheduleFile(path, rows)
	}
	return withStore(path, func(st *store.Store) error { return st.SaveSchedule(rows) })
}

func writeCosts(path string, rows []engine.CostRow) error {
	if !store.IsDatabasePath(path) {
		return tables.WriteCostsFile(path, rows)
	}
	return withStore(path, func(st *store.Store) error { return st.SaveCosts(rows) })
}

func writeTariffs(path string, rows []tables.TariffRow) error {
	if !store.IsDatabasePath(path) {
		return tables.WriteTariffsFile(path, rows)
	}
	return withStore(path, func(st *store.Store) error { return st.SaveTariffs(rows) })
}

// importTables validates both CSVs before touching the database
func importTables(dbPath, appliancesPath, tariffsPath string) error {
	if !store.IsDatabasePath(dbPath) {
		return fmt.Errorf("import target %q is not a .db, .sqlite or .sqlite3 file", dbPath)
	}

	appliances, err := tables.ReadAppliancesFile(appliancesPath)
	if err != nil {
		return err
	}
	tariff, err := tables.ReadTariffsFile(tariffsPath)
	if err != nil {
		return err
	}

	return withStore(dbPath, func(st *store.Store) error {
		if err := st.SaveAppliances(appliances); err != nil {
			return err
		}
		return st.SaveTariffs(tables.TariffRows(tariff))
	})
}

func withStore(path string, fn func(*store.Store) error) error {
	st, err := store.NewStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(st)
}
