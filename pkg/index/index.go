// Package index maintains a persistent seek index over a physical
// stream: for each (serial, granule) it records where the page carrying
// that granule begins, so players can seek without rescanning the file.
package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cockroachdb/pebble"

	"github.com/oggmux/oggmux/pkg/scan"
)

// ErrNotIndexed means no page at or before the requested granule exists
// in the index for that serial.
var ErrNotIndexed = errors.New("index: position not indexed")

// Entry locates one page within the physical stream.
type Entry struct {
	// Offset is the byte offset of the page's capture pattern.
	Offset int64

	// PageSequence is the page's sequence number.
	PageSequence uint32

	// GranulePos is the page's granule position.
	GranulePos int64
}

// BuildStats summarizes an indexing pass.
type BuildStats struct {
	PagesIndexed int64
	PagesSkipped int64 // pages without a granule position
	BytesSkipped int64 // resync losses in the source stream
}

// PageIndex is a pebble-backed mapping from (serial, granule) to page
// offsets. Keys sort by serial then granule so a seek is a bounded
// reverse scan.
type PageIndex struct {
	db *pebble.DB
}

// Open opens or creates a page index at path.
func Open(path string) (*PageIndex, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	return &PageIndex{db: db}, nil
}

// Close closes the underlying database.
func (ix *PageIndex) Close() error {
	return ix.db.Close()
}

// Put records the location of one page. Pages with an unset granule
// position carry continuation data only and cannot anchor a seek; they
// are ignored.
func (ix *PageIndex) Put(serial uint32, e Entry) error {
	if e.GranulePos < 0 {
		return nil
	}
	return ix.db.Set(indexKey(serial, e.GranulePos), indexValue(e), pebble.NoSync)
}

// Seek returns the last indexed page of the stream whose granule
// position is at or before granule.
func (ix *PageIndex) Seek(serial uint32, granule int64) (*Entry, error) {
	if granule < 0 {
		return nil, ErrNotIndexed
	}
	// Exclusive upper bound: one past (serial, granule). At the maximum
	// granule the increment would wrap, so extend the key by a byte
	// instead; the longer key still sorts within this serial's range.
	upper := indexKey(serial, granule)
	if granule < math.MaxInt64 {
		upper = indexKey(serial, granule+1)
	} else {
		upper = append(upper, 0x00)
	}
	iter, err := ix.db.NewIter(&pebble.IterOptions{
		LowerBound: indexKey(serial, 0),
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("index: iterator: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return nil, ErrNotIndexed
	}

	key := iter.Key()
	value, err := iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("index: read: %w", err)
	}

	e := decodeValue(value)
	e.GranulePos = int64(binary.BigEndian.Uint64(key[4:12]))
	return &e, nil
}

// IndexStream scans a physical stream from r and records every page
// that carries a granule position.
func (ix *PageIndex) IndexStream(r io.Reader) (*BuildStats, error) {
	sc := scan.NewScanner()
	stats := &BuildStats{}
	buf := make([]byte, 64*1024)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			sc.Feed(buf[:n])
			for page := sc.NextPage(); page != nil; page = sc.NextPage() {
				if page.GranulePos < 0 {
					stats.PagesSkipped++
					continue
				}
				err := ix.Put(page.SerialNumber, Entry{
					Offset:       sc.LastPageOffset(),
					PageSequence: page.PageSequence,
					GranulePos:   page.GranulePos,
				})
				if err != nil {
					return nil, err
				}
				stats.PagesIndexed++
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	stats.BytesSkipped = sc.BytesSkipped()
	return stats, nil
}

// indexKey is serial (4 bytes) then granule (8 bytes), both big-endian
// so that byte order matches numeric order.
func indexKey(serial uint32, granule int64) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], serial)
	binary.BigEndian.PutUint64(key[4:12], uint64(granule))
	return key
}

func indexValue(e Entry) []byte {
	value := make([]byte, 12)
	binary.BigEndian.PutUint64(value[0:8], uint64(e.Offset))
	binary.BigEndian.PutUint32(value[8:12], e.PageSequence)
	return value
}

func decodeValue(value []byte) Entry {
	return Entry{
		Offset:       int64(binary.BigEndian.Uint64(value[0:8])),
		PageSequence: binary.BigEndian.Uint32(value[8:12]),
	}
}
