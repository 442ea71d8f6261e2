// Package store persists tabulation bundles. A bundle is a single sqlite
// file holding the run attributes, the bin table, the tabulation matrix, the
// recorded correlation-function arguments, and the original result shape as
// independently addressable tables.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/halotab/internal/bins"
	"github.com/banshee-data/halotab/internal/tabulate"
)

// ErrBundleExists reports a refused overwrite: bundles are written once and
// never silently replaced.
var ErrBundleExists = errors.New("store: bundle file already exists")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Write serialises a tabulation to a new bundle file at path. It fails with
// ErrBundleExists before touching the filesystem if path already exists.
func Write(path string, tc *tabulate.TabCorr) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("%w: %s", ErrBundleExists, path)
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("store: stat %s: %w", path, statErr)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", path, err)
	}
	defer db.Close()

	if err := migrateUp(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`
		INSERT INTO attrs (tpcf, mode, simname, redshift, num_ptcl_requirement,
			prim_haloprop_key, sec_haloprop, sec_haloprop_key,
			sec_haloprop_split, run_id, skipped_pairs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tc.Attrs.TPCFName, tc.Attrs.Mode, tc.Attrs.SimName, tc.Attrs.Redshift,
		tc.Attrs.NumPtclRequirement, tc.Attrs.PrimHalopropKey,
		boolToInt(tc.Attrs.SecHaloprop), tc.Attrs.SecHalopropKey,
		tc.Attrs.SecHalopropSplit, tc.Attrs.RunID, tc.SkippedPairs); err != nil {
		return fmt.Errorf("store: write attrs: %w", err)
	}

	for i, row := range tc.Bins.Rows() {
		if _, err = tx.Exec(`
			INSERT INTO gal_type (idx, gal_type, log_prim_haloprop_min,
				log_prim_haloprop_max, prim_haloprop, n_h, sec)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, row.GalType.String(), row.LogPrimMin, row.LogPrimMax,
			row.PrimHaloprop, row.NH, row.Sec); err != nil {
			return fmt.Errorf("store: write gal_type row %d: %w", i, err)
		}
	}

	dim0, dim1, dim2 := matrixDims(tc)
	if _, err = tx.Exec(`INSERT INTO tpcf_matrix (dim0, dim1, dim2, data) VALUES (?, ?, ?, ?)`,
		dim0, dim1, dim2, encodeFloats(tc.Matrix)); err != nil {
		return fmt.Errorf("store: write matrix: %w", err)
	}

	for i, arg := range tc.Args {
		if _, err = tx.Exec(`INSERT INTO tpcf_args (pos, name, data) VALUES (?, ?, ?)`,
			i, fmt.Sprintf("arg_%d", i), encodeFloats(arg)); err != nil {
			return fmt.Errorf("store: write arg_%d: %w", i, err)
		}
	}

	for name, value := range tc.KWArgs {
		if _, err = tx.Exec(`INSERT INTO tpcf_kwargs (name, value) VALUES (?, ?)`,
			name, value); err != nil {
			return fmt.Errorf("store: write kwarg %s: %w", name, err)
		}
	}

	for i, extent := range tc.Shape {
		if _, err = tx.Exec(`INSERT INTO tpcf_shape (pos, extent) VALUES (?, ?)`,
			i, extent); err != nil {
			return fmt.Errorf("store: write shape: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Read reconstructs a tabulation from a bundle file. Bundles written before
// keyword-argument support lack the tpcf_kwargs table; they read back with
// an empty mapping.
func Read(path string) (*tabulate.TabCorr, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer db.Close()

	tc := &tabulate.TabCorr{KWArgs: map[string]float64{}}

	var secHaloprop int
	err = db.QueryRow(`
		SELECT tpcf, mode, simname, redshift, num_ptcl_requirement,
			prim_haloprop_key, sec_haloprop, sec_haloprop_key,
			sec_haloprop_split, run_id, skipped_pairs
		FROM attrs`).Scan(
		&tc.Attrs.TPCFName, &tc.Attrs.Mode, &tc.Attrs.SimName,
		&tc.Attrs.Redshift, &tc.Attrs.NumPtclRequirement,
		&tc.Attrs.PrimHalopropKey, &secHaloprop, &tc.Attrs.SecHalopropKey,
		&tc.Attrs.SecHalopropSplit, &tc.Attrs.RunID, &tc.SkippedPairs)
	if err != nil {
		return nil, fmt.Errorf("store: read attrs: %w", err)
	}
	tc.Attrs.SecHaloprop = secHaloprop != 0

	if tc.Bins, err = readBins(db); err != nil {
		return nil, err
	}

	var blob []byte
	var dim0, dim1 int
	var dim2 sql.NullInt64
	if err := db.QueryRow(`SELECT dim0, dim1, dim2, data FROM tpcf_matrix`).
		Scan(&dim0, &dim1, &dim2, &blob); err != nil {
		return nil, fmt.Errorf("store: read matrix: %w", err)
	}
	if tc.Matrix, err = decodeFloats(blob); err != nil {
		return nil, fmt.Errorf("store: decode matrix: %w", err)
	}

	if tc.Args, err = readArgs(db); err != nil {
		return nil, err
	}

	if err := readKWArgs(db, tc.KWArgs); err != nil {
		return nil, err
	}

	if tc.Shape, err = readShape(db); err != nil {
		return nil, err
	}
	return tc, nil
}

func readBins(db *sql.DB) (*bins.GalTypeTable, error) {
	rows, err := db.Query(`
		SELECT gal_type, log_prim_haloprop_min, log_prim_haloprop_max,
			prim_haloprop, n_h, sec
		FROM gal_type ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("store: read gal_type: %w", err)
	}
	defer rows.Close()

	var flat []bins.Row
	for rows.Next() {
		var r bins.Row
		var galType string
		if err := rows.Scan(&galType, &r.LogPrimMin, &r.LogPrimMax,
			&r.PrimHaloprop, &r.NH, &r.Sec); err != nil {
			return nil, fmt.Errorf("store: scan gal_type: %w", err)
		}
		if r.GalType, err = bins.ParseGalType(galType); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read gal_type: %w", err)
	}
	table, err := bins.FromRows(flat)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return table, nil
}

func readArgs(db *sql.DB) ([][]float64, error) {
	rows, err := db.Query(`SELECT data FROM tpcf_args ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("store: read args: %w", err)
	}
	defer rows.Close()

	var args [][]float64
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("store: scan arg: %w", err)
		}
		arg, err := decodeFloats(blob)
		if err != nil {
			return nil, fmt.Errorf("store: decode arg: %w", err)
		}
		args = append(args, arg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read args: %w", err)
	}
	return args, nil
}

// readKWArgs fills dst from the tpcf_kwargs table. Bundles written by
// older versions lack the table; those read back as an empty map.
func readKWArgs(db *sql.DB, dst map[string]float64) error {
	hasKWArgs, err := tableExists(db, "tpcf_kwargs")
	if err != nil {
		return err
	}
	if !hasKWArgs {
		return nil
	}
	rows, err := db.Query(`SELECT name, value FROM tpcf_kwargs`)
	if err != nil {
		return fmt.Errorf("store: read kwargs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("store: scan kwarg: %w", err)
		}
		dst[name] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: read kwargs: %w", err)
	}
	return nil
}

func readShape(db *sql.DB) ([]int, error) {
	rows, err := db.Query(`SELECT extent FROM tpcf_shape ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("store: read shape: %w", err)
	}
	defer rows.Close()

	var shape []int
	for rows.Next() {
		var extent int
		if err := rows.Scan(&extent); err != nil {
			return nil, fmt.Errorf("store: scan shape: %w", err)
		}
		shape = append(shape, extent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read shape: %w", err)
	}
	return shape, nil
}

// matrixDims reports the logical matrix dimensions; dim2 is null in cross
// mode.
func matrixDims(tc *tabulate.TabCorr) (int, int, interface{}) {
	n := tc.Bins.Len()
	k := 0
	if len(tc.Matrix) > 0 {
		k = tabulate.Flatlen(tc.Shape)
	}
	if tc.Attrs.Mode == tabulate.ModeCross {
		return k, n, nil
	}
	return k, n, n
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: check table %s: %w", name, err)
	}
	return count > 0, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: open migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	// Note: m is not closed here; closing it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
