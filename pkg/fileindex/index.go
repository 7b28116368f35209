package fileindex

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vela-embedded/flashio/pkg/spiflash"
)

// Config bounds the heap growth intrinsic to indexing: a maximum
// file/segment count, past which indexing fails rather than growing
// without limit. A zero field leaves that count unbounded.
type Config struct {
	MaxFiles           int
	MaxSegmentsPerFile int
}

// Index is the process-wide file/segment directory built by one boot-time
// scan of a SPIFLASH device.
type Index struct {
	flash  *spiflash.Driver
	logger *logrus.Entry
	cfg    Config

	flashSize  uint32
	sectorSize uint32
	cursor     uint32

	req      spiflash.Request
	scratch  [readChunk]byte
	reading  bool
	readDone bool

	files     *File
	fileCount int

	done  bool
	fatal error

	doneCh chan struct{}
}

// New constructs an Index over flash, whose geometry must already be
// configured (spiflash.Driver.Configure). Scanning does not begin until
// the caller drives Service from the fast tick.
func New(flash *spiflash.Driver, cfg Config, logger *logrus.Entry) *Index {
	if logger == nil {
		logger = logrus.WithField("component", "fileindex")
	}
	info, _ := flash.Info()
	idx := &Index{
		flash:      flash,
		logger:     logger,
		cfg:        cfg,
		flashSize:  info.FlashSize,
		sectorSize: info.SectorSize,
		doneCh:     make(chan struct{}),
	}
	return idx
}

// Done reports whether the boot-time scan has finished.
func (idx *Index) Done() bool { return idx.done }

// Err returns the fatal error that stopped indexing, if any.
func (idx *Index) Err() error { return idx.fatal }

// Wait blocks until indexing completes or ctx is done, polling Done at a
// fine interval. It does not drive Service itself; the caller's tick loop
// must still be running concurrently.
func (idx *Index) Wait(ctx context.Context) error {
	select {
	case <-idx.doneCh:
		return idx.fatal
	default:
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-idx.doneCh:
			return idx.fatal
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// File looks up a file by unique-id.
func (idx *Index) File(uniqueID uint32) (*File, Result) {
	for f := idx.files; f != nil; f = f.Next {
		if f.UniqueID == uniqueID {
			return f, ResultOK
		}
	}
	return nil, ResultNotFound
}

// Files returns the directory's file list head; walk via File.Next.
func (idx *Index) Files() *File { return idx.files }

// FileCount reports how many distinct files the scan has found so far.
func (idx *Index) FileCount() int { return idx.fileCount }

func (idx *Index) findOrCreateFile(uniqueID uint32) (*File, bool) {
	if f, ok := idx.File(uniqueID); ok == ResultOK {
		return f, true
	}
	if idx.cfg.MaxFiles > 0 && idx.fileCount >= idx.cfg.MaxFiles {
		return nil, false
	}
	f := &File{UniqueID: uniqueID, Next: idx.files}
	idx.files = f
	idx.fileCount++
	return f, true
}

func (idx *Index) fail(err error) {
	idx.logger.WithError(err).Error("fileindex: fatal")
	idx.fatal = err
	idx.done = true
	close(idx.doneCh)
}

func (idx *Index) finish() {
	idx.done = true
	close(idx.doneCh)
}

// alignToNextSector advances address to the start of the next sector
// boundary, used to resynchronize the scan after a corrupt header.
func (idx *Index) alignToNextSector(address uint32) uint32 {
	return (address + idx.sectorSize) &^ (idx.sectorSize - 1)
}
