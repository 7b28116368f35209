package spiflash

// Info describes the geometry of a configured flash part.
type Info struct {
	JedecID    [3]byte
	FlashSize  uint32
	PageSize   uint32
	SectorSize uint32
}

// knownParts is the built-in JEDEC id table. Entries are the parts
// observed in the field so far; flashprofile.Table can extend this list
// from an ini override without touching the source.
var knownParts = []Info{
	{JedecID: [3]byte{0xEF, 0x40, 0x17}, FlashSize: 0x800000, PageSize: 0x100, SectorSize: 0x1000},   // Winbond W25Q64
	{JedecID: [3]byte{0xEF, 0x40, 0x16}, FlashSize: 0x400000, PageSize: 0x100, SectorSize: 0x1000},   // Winbond W25Q32
	{JedecID: [3]byte{0xEF, 0x40, 0x18}, FlashSize: 0x1000000, PageSize: 0x100, SectorSize: 0x1000},  // Winbond W25Q128
	{JedecID: [3]byte{0xC2, 0x20, 0x17}, FlashSize: 0x800000, PageSize: 0x100, SectorSize: 0x1000},   // Macronix MX25L6406E
	{JedecID: [3]byte{0x20, 0x20, 0x17}, FlashSize: 0x800000, PageSize: 0x100, SectorSize: 0x1000},   // Micron M25P64
}

// extraParts holds entries registered at runtime by RegisterPart, checked
// before knownParts so an override shadows rather than replaces the table.
var extraParts []Info

// RegisterPart adds or overrides a JEDEC id entry, used by flashprofile
// when loading geometry from an ini override file.
func RegisterPart(info Info) {
	for i, p := range extraParts {
		if p.JedecID == info.JedecID {
			extraParts[i] = info
			return
		}
	}
	extraParts = append(extraParts, info)
}

func lookup(jedecID [3]byte) (Info, bool) {
	for _, p := range extraParts {
		if p.JedecID == jedecID {
			return p, true
		}
	}
	for _, p := range knownParts {
		if p.JedecID == jedecID {
			return p, true
		}
	}
	return Info{}, false
}
