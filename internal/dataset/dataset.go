// Package dataset persists a transaction sequence to a directory of CSV
// files and loads it back.
//
// Layout:
//
//	<dir>/manifest.json     format, id, seed, count, created_at
//	<dir>/transactions.csv  order_number,gratuity
//	<dir>/purchases.csv     order_number,food_id (one row per purchased item)
//	<dir>/.lock             flock target
//
// Every file is replaced atomically. Loading rebuilds exactly the saved
// transactions, in file order, and rejects anything that breaks the data
// model instead of repairing it.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

// File names inside a dataset directory.
const (
	ManifestFile     = "manifest.json"
	TransactionsFile = "transactions.csv"
	PurchasesFile    = "purchases.csv"
)

// FormatVersion is the on-disk format written by [Save].
const FormatVersion = 1

// Manifest describes a saved dataset.
type Manifest struct {
	Format    int       `json:"format"`
	ID        uuid.UUID `json:"id"`
	Seed      uint64    `json:"seed"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// Dataset is a transaction sequence together with its manifest.
type Dataset struct {
	Manifest     Manifest
	Transactions *bakery.Sequence
}

// New wraps freshly generated transactions in a dataset with a new
// time-ordered id.
func New(txns []bakery.Transaction, seed uint64, now time.Time) (*Dataset, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating dataset id: %w", err)
	}

	return &Dataset{
		Manifest: Manifest{
			Format:    FormatVersion,
			ID:        id,
			Seed:      seed,
			Count:     len(txns),
			CreatedAt: now.UTC(),
		},
		Transactions: bakery.NewSequence(txns),
	}, nil
}

// Save writes ds to dir, creating the directory if needed. It holds the
// dataset lock exclusively while writing. The manifest is written last, so
// a reader never sees a manifest that disagrees with the CSV files it
// describes once Save has returned.
func Save(dir string, ds *Dataset) (err error) {
	if dir == "" {
		return ErrDirEmpty
	}

	lock, err := lockDir(dir, true, LockTimeout)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	view := ds.Transactions.All()
	manifest := ds.Manifest
	manifest.Count = view.Len()

	var txBuf, purchaseBuf bytes.Buffer

	txWriter := csv.NewWriter(&txBuf)
	purchaseWriter := csv.NewWriter(&purchaseBuf)

	for _, t := range view.Transactions() {
		order := strconv.Itoa(t.OrderNumber)

		err = txWriter.Write([]string{order, strconv.FormatFloat(t.Gratuity, 'g', -1, 64)})
		if err != nil {
			return &Error{File: TransactionsFile, Err: err}
		}

		for id := range t.Purchases.All() {
			err = purchaseWriter.Write([]string{order, strconv.Itoa(id)})
			if err != nil {
				return &Error{File: PurchasesFile, Err: err}
			}
		}
	}

	txWriter.Flush()
	purchaseWriter.Flush()

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return &Error{File: ManifestFile, Err: err}
	}

	files := []struct {
		name string
		data []byte
	}{
		{TransactionsFile, txBuf.Bytes()},
		{PurchasesFile, purchaseBuf.Bytes()},
		{ManifestFile, append(manifestJSON, '\n')},
	}

	for _, f := range files {
		err = atomic.WriteFile(filepath.Join(dir, f.name), bytes.NewReader(f.data))
		if err != nil {
			return &Error{File: f.name, Err: fmt.Errorf("writing: %w", err)}
		}
	}

	ds.Manifest = manifest

	return nil
}

// Load reads the dataset in dir and validates every transaction against c.
// It holds the dataset lock shared while reading.
func Load(dir string, c *bakery.Catalog) (ds *Dataset, err error) {
	if dir == "" {
		return nil, ErrDirEmpty
	}

	_, statErr := os.Stat(filepath.Join(dir, ManifestFile))
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}

		return nil, &Error{File: ManifestFile, Err: statErr}
	}

	lock, err := lockDir(dir, false, LockTimeout)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	txns, index, err := readTransactions(dir)
	if err != nil {
		return nil, err
	}

	err = readPurchases(dir, txns, index, c)
	if err != nil {
		return nil, err
	}

	if len(txns) != manifest.Count {
		return nil, &Error{File: ManifestFile, Err: fmt.Errorf("%w: manifest lists %d transactions, found %d", ErrCorrupt, manifest.Count, len(txns))}
	}

	for _, t := range txns {
		err = t.ValidateAgainst(c)
		if err != nil {
			return nil, &Error{File: PurchasesFile, Err: err}
		}
	}

	return &Dataset{Manifest: manifest, Transactions: bakery.NewSequence(txns)}, nil
}

// Exists reports whether dir holds a dataset manifest.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFile))

	return err == nil
}

// Remove deletes the dataset files from dir. Missing files are ignored; the
// directory itself is left in place.
func Remove(dir string) (err error) {
	if dir == "" {
		return ErrDirEmpty
	}

	lock, err := lockDir(dir, true, LockTimeout)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	// Manifest first: a half-removed dataset must not look loadable.
	for _, name := range []string{ManifestFile, TransactionsFile, PurchasesFile} {
		rmErr := os.Remove(filepath.Join(dir, name))
		if rmErr != nil && !os.IsNotExist(rmErr) {
			return &Error{File: name, Err: rmErr}
		}
	}

	return nil
}

func readManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, &Error{File: ManifestFile, Err: err}
	}

	var m Manifest

	err = json.Unmarshal(data, &m)
	if err != nil {
		return Manifest{}, &Error{File: ManifestFile, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}

	if m.Format != FormatVersion {
		return Manifest{}, &Error{File: ManifestFile, Err: fmt.Errorf("%w: %d", ErrUnsupportedFormat, m.Format)}
	}

	return m, nil
}

func readTransactions(dir string) ([]bakery.Transaction, map[int]int, error) {
	var txns []bakery.Transaction

	index := make(map[int]int)

	err := eachRecord(dir, TransactionsFile, func(line int, rec []string) error {
		order, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("%w: order number %q", ErrCorrupt, rec[0])
		}

		gratuity, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return fmt.Errorf("%w: gratuity %q", ErrCorrupt, rec[1])
		}

		if _, dup := index[order]; dup {
			return fmt.Errorf("%w: order %d listed twice", ErrCorrupt, order)
		}

		txn := bakery.Transaction{OrderNumber: order, Gratuity: gratuity}

		err = txn.Validate()
		if err != nil {
			return err
		}

		index[order] = len(txns)
		txns = append(txns, txn)

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return txns, index, nil
}

func readPurchases(dir string, txns []bakery.Transaction, index map[int]int, c *bakery.Catalog) error {
	return eachRecord(dir, PurchasesFile, func(line int, rec []string) error {
		order, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("%w: order number %q", ErrCorrupt, rec[0])
		}

		id, err := strconv.Atoi(rec[1])
		if err != nil {
			return fmt.Errorf("%w: food id %q", ErrCorrupt, rec[1])
		}

		pos, ok := index[order]
		if !ok {
			return fmt.Errorf("%w: purchase for unknown order %d", ErrCorrupt, order)
		}

		if !c.Has(id) {
			return &bakery.TransactionError{OrderNumber: order, Err: fmt.Errorf("%w: %d", bakery.ErrUnknownFood, id)}
		}

		if txns[pos].Purchases.Has(id) {
			return fmt.Errorf("%w: order %d lists food %d twice", ErrCorrupt, order, id)
		}

		txns[pos].Purchases = txns[pos].Purchases.With(id)

		return nil
	})
}

// eachRecord streams the two-column CSV file name in dir, calling fn with the
// 1-based line number of each record. Errors from fn are tagged with the
// file and line.
func eachRecord(dir, name string, fn func(line int, rec []string) error) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return &Error{File: name, Err: fmt.Errorf("%w: file missing", ErrCorrupt)}
		}

		return &Error{File: name, Err: err}
	}

	defer func() { _ = f.Close() }()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = 2
	r.ReuseRecord = true

	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return &Error{File: name, Line: line, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
		}

		err = fn(line, rec)
		if err != nil {
			return &Error{File: name, Line: line, Err: err}
		}
	}
}
