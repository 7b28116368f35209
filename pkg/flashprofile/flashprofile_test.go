package flashprofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltinTable(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	p, ok := table.Lookup([3]byte{0xEF, 0x40, 0x17})
	require.True(t, ok)
	assert.Equal(t, "Winbond W25Q64", p.Name)
	assert.EqualValues(t, 0x800000, p.FlashSize)
	assert.EqualValues(t, 0x1000, p.SectorSize)

	_, ok = table.Lookup([3]byte{0xAA, 0xBB, 0xCC})
	assert.False(t, ok)
}

func TestLoadOverrideAddsAndCorrectsEntries(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.ini")
	require.NoError(t, os.WriteFile(override, []byte(
		"[EF4017]\nFlashSize = 0x1000000\n\n"+
			"[AABBCC]\nName = Custom Part\nFlashSize = 0x100000\nPageSize = 0x100\nSectorSize = 0x1000\n",
	), 0o644))

	table, err := Load(override)
	require.NoError(t, err)

	overridden, ok := table.Lookup([3]byte{0xEF, 0x40, 0x17})
	require.True(t, ok)
	assert.EqualValues(t, 0x1000000, overridden.FlashSize)

	custom, ok := table.Lookup([3]byte{0xAA, 0xBB, 0xCC})
	require.True(t, ok)
	assert.Equal(t, "Custom Part", custom.Name)
}
