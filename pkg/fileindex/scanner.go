package fileindex

import "github.com/vela-embedded/flashio/pkg/spiflash"

// Service is the fast-tick entry point. It runs after SPIFLASH's own
// Service in the foreground loop so it observes the latest read
// completion, issuing at most one SPIFLASH read per outstanding request
// and processing exactly one header once that read lands.
func (idx *Index) Service() {
	if idx.done {
		return
	}
	if idx.cursor >= idx.flashSize {
		idx.finish()
		return
	}

	if !idx.reading {
		idx.issueRead()
		return
	}

	if !idx.req.Complete {
		return
	}
	idx.reading = false

	// A flash read error returns to reissuing the read for the same
	// cursor: leave the cursor untouched and retry on the next Service
	// call.
	if idx.req.Result != spiflash.ResultOK {
		return
	}

	idx.processHeader()
}

func (idx *Index) issueRead() {
	n := uint32(readChunk)
	if remain := idx.flashSize - idx.cursor; remain < n {
		n = remain
	}
	idx.req = spiflash.Request{
		Op:      spiflash.OpRead,
		Address: idx.cursor,
		Data:    idx.scratch[:n],
		Size:    n,
	}
	idx.reading = true
	result := idx.flash.Submit(idx, &idx.req)
	if result != spiflash.ResultOK {
		// Busy/in-use: retry next tick without consuming the slot.
		idx.reading = false
		idx.req.Complete = true
		idx.req.Result = result
	}
}

func (idx *Index) processHeader() {
	n := idx.req.Size
	header, ok := parseHeader(idx.scratch[:n])
	if !ok {
		idx.cursor = idx.alignToNextSector(idx.cursor)
		return
	}

	if isDeleted(header.flags) {
		idx.cursor += uint32(header.length)
		return
	}

	file, ok := idx.findOrCreateFile(header.uniqueID)
	if !ok {
		idx.fail(ErrOutOfMemory)
		return
	}
	if idx.cfg.MaxSegmentsPerFile > 0 && file.SegmentCount() >= idx.cfg.MaxSegmentsPerFile {
		idx.fail(ErrOutOfMemory)
		return
	}

	seg := header.toSegment(idx.cursor)
	file.insert(seg)

	idx.cursor += uint32(header.length)
}
