/*package catalog keeps an optional sqlite index of everything a run has
written: one row per run, one per diagnostic, and one per buffer flush. The
dumps themselves stay on the output filesystem. The catalogue only lets
downstream tools find them without walking the directory tree.
*/
package catalog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/logging"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Catalog is a handle to an open catalogue database.
type Catalog struct {
	*sql.DB
}

// Flush is a single row of the flushes table.
type Flush struct {
	Dir        string
	FlushNum   int
	FileName   string
	NSlabs     int
	NParticles int
	TBoost     float64
}

// Open opens (creating, if needed) the catalogue at path and migrates it to
// the latest schema.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Could not open catalog %s: %w", path, err)
	}
	// Writes come from a single goroutine and ":memory:" databases are
	// per-connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("Could not execute %q on %s: %w",
				pragma, path, err)
		}
	}

	c := &Catalog{db}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Could not create the schema of %s: %w",
			path, err)
	}
	return c, nil
}

// newMigrate creates a migrate instance reading the embedded migrations. It
// is never closed, since that would close the underlying database.
func (c *Catalog) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("Could not read the catalog migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("Could not create the sqlite migration "+
			"driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("Could not create the migrator: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// MigrateUp runs every pending migration.
func (c *Catalog) MigrateUp() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("Catalog migration failed: %w", err)
	}
	return nil
}

// MigrateTo migrates the schema up or down to version.
func (c *Catalog) MigrateTo(version uint) error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("Catalog migration to version %d failed: %w",
			version, err)
	}
	return nil
}

// Version returns the schema version and whether a migration failed partway
// through. It is 0 if no migrations have been applied.
func (c *Catalog) Version() (version uint, dirty bool, err error) {
	m, err := c.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	logging.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// RecordRun adds a run to the catalogue.
func (c *Catalog) RecordRun(md *snapio.Metadata) error {
	_, err := c.Exec(`
		INSERT INTO runs (run_id, gamma, beta, boost_direction, dz_lab)
		VALUES (?, ?, ?, ?, ?)
	`, md.RunID, md.Gamma, md.Beta, md.BoostDirection, md.DzLab)
	if err != nil {
		return fmt.Errorf("Could not record run %s: %w", md.RunID, err)
	}
	return nil
}

// RecordDiagnostic adds a diagnostic belonging to runID.
func (c *Catalog) RecordDiagnostic(runID string, rec snapio.DiagRecord) error {
	_, err := c.Exec(`
		INSERT INTO diagnostics (run_id, dir, kind, file_num, t_lab,
		    nx, ny, nz, lo_x, lo_y, lo_z, hi_x, hi_y, hi_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, rec.Dir, rec.Kind, rec.FileNum, rec.TLab,
		rec.NCells[0], rec.NCells[1], rec.NCells[2],
		rec.Lo[0], rec.Lo[1], rec.Lo[2], rec.Hi[0], rec.Hi[1], rec.Hi[2])
	if err != nil {
		return fmt.Errorf("Could not record diagnostic %s: %w", rec.Dir, err)
	}
	return nil
}

// RecordFlush adds a buffer flush of a diagnostic belonging to runID.
func (c *Catalog) RecordFlush(runID string, f Flush) error {
	_, err := c.Exec(`
		INSERT INTO flushes
		    (run_id, dir, flush_num, file_name, n_slabs, n_particles, t_boost)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, f.Dir, f.FlushNum, f.FileName, f.NSlabs, f.NParticles, f.TBoost)
	if err != nil {
		return fmt.Errorf("Could not record flush %d of %s: %w",
			f.FlushNum, f.Dir, err)
	}
	return nil
}

// Diagnostics returns the diagnostics of runID ordered by kind and file
// number.
func (c *Catalog) Diagnostics(runID string) ([]snapio.DiagRecord, error) {
	rows, err := c.Query(`
		SELECT dir, kind, file_num, t_lab, nx, ny, nz,
		    lo_x, lo_y, lo_z, hi_x, hi_y, hi_z
		FROM diagnostics WHERE run_id = ? ORDER BY kind, file_num
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("Could not query diagnostics of run %s: %w",
			runID, err)
	}
	defer rows.Close()

	out := []snapio.DiagRecord{}
	for rows.Next() {
		rec := snapio.DiagRecord{}
		n := geom.IntVect{}
		err := rows.Scan(&rec.Dir, &rec.Kind, &rec.FileNum, &rec.TLab,
			&n[0], &n[1], &n[2], &rec.Lo[0], &rec.Lo[1], &rec.Lo[2],
			&rec.Hi[0], &rec.Hi[1], &rec.Hi[2])
		if err != nil {
			return nil, err
		}
		rec.NCells = n
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Flushes returns the flushes of a single diagnostic in flush order.
func (c *Catalog) Flushes(runID, dir string) ([]Flush, error) {
	rows, err := c.Query(`
		SELECT dir, flush_num, file_name, n_slabs, n_particles, t_boost
		FROM flushes WHERE run_id = ? AND dir = ? ORDER BY flush_num
	`, runID, dir)
	if err != nil {
		return nil, fmt.Errorf("Could not query flushes of %s: %w", dir, err)
	}
	defer rows.Close()

	out := []Flush{}
	for rows.Next() {
		f := Flush{}
		err := rows.Scan(&f.Dir, &f.FlushNum, &f.FileName,
			&f.NSlabs, &f.NParticles, &f.TBoost)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
