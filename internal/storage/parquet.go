// Package storage persists the three notice dataset tiers as parquet
// snapshot files at fixed paths: bronze (raw scrape output), silver (typed)
// and gold (derived). Each write fully replaces the previous snapshot.
package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

const (
	bronzeFile = "chamadas_bolsas_ipea.parquet"
	silverFile = "chamadas_bolsas_ipea_silver.parquet"
	goldFile   = "chamadas_bolsas_ipea_gold.parquet"
)

// requiredGoldColumns is the column set the query layer depends on. A gold
// file missing any of them is logged but still served (lenient policy: a
// partially complete dataset beats none).
var requiredGoldColumns = []string{
	"numero_chamada", "ano_chamada", "link_chamada",
	"dt_fim", "edital_aberto", "horas_restantes",
}

// Tiers reads and writes the dataset files under a single data directory.
type Tiers struct {
	dir string
}

// NewTiers creates the data directory if needed.
func NewTiers(dir string) (*Tiers, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Tiers{dir: dir}, nil
}

// GoldPath returns the fixed location of the derived-tier snapshot.
func (t *Tiers) GoldPath() string { return filepath.Join(t.dir, goldFile) }

// WriteBronze replaces the raw-tier snapshot.
func (t *Tiers) WriteBronze(rows []model.RawNotice) error {
	return writeAtomic(filepath.Join(t.dir, bronzeFile), rows)
}

// WriteSilver replaces the typed-tier snapshot.
func (t *Tiers) WriteSilver(rows []model.SilverNotice) error {
	return writeAtomic(filepath.Join(t.dir, silverFile), rows)
}

// WriteGold replaces the derived-tier snapshot.
func (t *Tiers) WriteGold(rows []model.Notice) error {
	return writeAtomic(t.GoldPath(), rows)
}

// LoadGold reads the full derived tier. The caller is expected to map
// os.ErrNotExist to its "data unavailable" handling.
func (t *Tiers) LoadGold() ([]model.Notice, error) {
	path := t.GoldPath()
	if err := checkGoldColumns(path); err != nil {
		return nil, err
	}

	rows, err := parquet.ReadFile[model.Notice](path)
	if err != nil {
		return nil, fmt.Errorf("read gold tier %s: %w", path, err)
	}
	return rows, nil
}

// GoldModTime reports the gold snapshot's modification time, used by the
// dataset cache as its reload trigger.
func (t *Tiers) GoldModTime() (time.Time, error) {
	info, err := os.Stat(t.GoldPath())
	if err != nil {
		return time.Time{}, fmt.Errorf("stat gold tier: %w", err)
	}
	return info.ModTime(), nil
}

// checkGoldColumns verifies the required column set against the file schema.
// Missing columns are an error in the log, not a load failure.
func checkGoldColumns(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gold tier: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat gold tier: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return fmt.Errorf("open gold parquet %s: %w", path, err)
	}

	for _, col := range requiredGoldColumns {
		if _, ok := pf.Schema().Lookup(col); !ok {
			log.Printf("[storage] gold tier is missing column %q", col)
		}
	}
	return nil
}

// writeAtomic writes rows to a temp sibling and renames it into place, so a
// failed run can never leave a half-written snapshot behind.
func writeAtomic[T any](path string, rows []T) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("close parquet writer %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
