// Package flashprofile loads the JEDEC-id-to-geometry table spiflash.Driver
// needs to self-configure after GetID. The built-in table ships as an
// embedded .ini document; callers may load a site-specific override file on
// top of it to add parts or correct geometry for existing ones.
package flashprofile

import (
	"embed"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/vela-embedded/flashio/pkg/spiflash"
)

//go:embed profiles.ini
var defaultTable embed.FS

var sectionPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Profile is one parsed JEDEC geometry entry.
type Profile struct {
	JedecID    [3]byte
	Name       string
	FlashSize  uint32
	PageSize   uint32
	SectorSize uint32
}

// Table is a loaded, queryable set of profiles.
type Table struct {
	profiles []Profile
}

// Load reads the built-in profiles.ini and, if overridePath is non-empty,
// merges a site-specific ini file on top of it (later sources win on a
// per-key basis, per ini.v1's normal Load semantics).
func Load(overridePath string) (*Table, error) {
	defaultBytes, err := defaultTable.ReadFile("profiles.ini")
	if err != nil {
		return nil, fmt.Errorf("flashprofile: read embedded table: %w", err)
	}

	sources := []interface{}{defaultBytes}
	if overridePath != "" {
		sources = append(sources, overridePath)
	}

	doc, err := ini.Load(sources[0], sources[1:]...)
	if err != nil {
		return nil, fmt.Errorf("flashprofile: load: %w", err)
	}

	t := &Table{}
	for _, section := range doc.Sections() {
		name := section.Name()
		if !sectionPattern.MatchString(name) {
			continue
		}
		raw, err := strconv.ParseUint(name, 16, 24)
		if err != nil {
			return nil, fmt.Errorf("flashprofile: section %q: %w", name, err)
		}
		id := [3]byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}

		flashSize, err := strconv.ParseUint(section.Key("FlashSize").Value(), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("flashprofile: section %q: FlashSize: %w", name, err)
		}
		pageSize, err := strconv.ParseUint(section.Key("PageSize").Value(), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("flashprofile: section %q: PageSize: %w", name, err)
		}
		sectorSize, err := strconv.ParseUint(section.Key("SectorSize").Value(), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("flashprofile: section %q: SectorSize: %w", name, err)
		}

		t.profiles = append(t.profiles, Profile{
			JedecID:    id,
			Name:       section.Key("Name").String(),
			FlashSize:  uint32(flashSize),
			PageSize:   uint32(pageSize),
			SectorSize: uint32(sectorSize),
		})
	}
	return t, nil
}

// Lookup finds a profile by its 3-byte JEDEC id.
func (t *Table) Lookup(id [3]byte) (Profile, bool) {
	for _, p := range t.profiles {
		if p.JedecID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// All returns every loaded profile.
func (t *Table) All() []Profile {
	return append([]Profile(nil), t.profiles...)
}

// Apply registers every profile with spiflash's JEDEC table via
// spiflash.RegisterPart, so a subsequent Driver.Configure call can resolve
// geometry for any part this table knows about.
func (t *Table) Apply() {
	for _, p := range t.profiles {
		spiflash.RegisterPart(spiflash.Info{
			JedecID:    p.JedecID,
			FlashSize:  p.FlashSize,
			PageSize:   p.PageSize,
			SectorSize: p.SectorSize,
		})
	}
}
