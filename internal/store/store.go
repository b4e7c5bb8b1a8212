// Package store persists published registries so a restarted daemon serves
// the accumulated view without waiting for every generator to publish again.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/traitdex/traitdex/internal/types"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRegistry replaces the stored entries for every module the registry
// names under the given trait, in one transaction. Modules not named keep
// their stored entries, matching the in-memory merge policy.
func (s *Store) SaveRegistry(trait string, reg types.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	traitID, err := upsertName(tx, `traits`, `path`, trait)
	if err != nil {
		return fmt.Errorf("upsert trait: %w", err)
	}

	for module, descs := range reg {
		moduleID, err := upsertName(tx, `modules`, `name`, module)
		if err != nil {
			return fmt.Errorf("upsert module: %w", err)
		}

		if _, err := tx.Exec(
			`DELETE FROM implementors WHERE trait_id = ? AND module_id = ?`,
			traitID, moduleID,
		); err != nil {
			return fmt.Errorf("clear module entries: %w", err)
		}

		for i, d := range descs {
			res, err := tx.Exec(
				`INSERT INTO implementors (trait_id, module_id, position, display, synthetic)
				 VALUES (?, ?, ?, ?, ?)`,
				traitID, moduleID, i, d.Display, boolToInt(d.Synthetic),
			)
			if err != nil {
				return fmt.Errorf("insert implementor: %w", err)
			}
			implID, err := res.LastInsertId()
			if err != nil {
				return err
			}

			for j, typePath := range d.Types {
				if _, err := tx.Exec(
					`INSERT INTO impl_types (implementor_id, position, type_path) VALUES (?, ?, ?)`,
					implID, j, typePath,
				); err != nil {
					return fmt.Errorf("insert type path: %w", err)
				}
			}
		}
	}

	return tx.Commit()
}

// LoadAll reads every stored registry back out, keyed by trait, with
// descriptor and type-path order preserved.
func (s *Store) LoadAll() (map[string]types.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT i.id, t.path, m.name, i.display, i.synthetic
		FROM implementors i
		JOIN traits t ON t.id = i.trait_id
		JOIN modules m ON m.id = i.module_id
		ORDER BY t.path, m.name, i.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type loadedRow struct {
		trait, module string
		desc          types.ImplementorDescriptor
	}
	var loaded []loadedRow
	byID := make(map[int64]int)

	for rows.Next() {
		var (
			id            int64
			trait, module string
			display       string
			synthetic     int
		)
		if err := rows.Scan(&id, &trait, &module, &display, &synthetic); err != nil {
			return nil, err
		}

		byID[id] = len(loaded)
		loaded = append(loaded, loadedRow{
			trait:  trait,
			module: module,
			desc: types.ImplementorDescriptor{
				Display:   display,
				Synthetic: synthetic != 0,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := s.db.Query(
		`SELECT implementor_id, type_path FROM impl_types ORDER BY implementor_id, position`)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var (
			implID   int64
			typePath string
		)
		if err := typeRows.Scan(&implID, &typePath); err != nil {
			return nil, err
		}
		if idx, ok := byID[implID]; ok {
			loaded[idx].desc.Types = append(loaded[idx].desc.Types, typePath)
		}
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]types.Registry)
	for _, row := range loaded {
		reg, ok := result[row.trait]
		if !ok {
			reg = make(types.Registry)
			result[row.trait] = reg
		}
		reg[row.module] = append(reg[row.module], row.desc)
	}
	return result, nil
}

func upsertName(tx *sql.Tx, table, column, value string) (int64, error) {
	if _, err := tx.Exec(
		fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (?)`, table, column), value,
	); err != nil {
		return 0, err
	}

	var id int64
	err := tx.QueryRow(
		fmt.Sprintf(`SELECT id FROM %s WHERE %s = ?`, table, column), value,
	).Scan(&id)
	return id, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
