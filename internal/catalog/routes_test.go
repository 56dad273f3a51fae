package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidType(t *testing.T) {
	assert.True(t, ValidType("PC"))
	assert.True(t, ValidType("NPC"))
	assert.True(t, ValidType("Monster"))
	assert.False(t, ValidType("pc"))
	assert.False(t, ValidType("Boss"))
	assert.False(t, ValidType(""))
}

func TestParseCSV(t *testing.T) {
	csv := "Wolf,11,Monster\r\nJeff,45,PC\n\nNoHP,,NPC\nBadType,5,Boss\n,10,PC\nshort,line"
	rows := ParseCSV(csv)

	require.Len(t, rows, 3)

	assert.Equal(t, "Wolf", rows[0].Name)
	assert.Equal(t, "Monster", rows[0].Type)
	require.NotNil(t, rows[0].DefaultHealth)
	assert.Equal(t, 11, *rows[0].DefaultHealth)

	assert.Equal(t, "Jeff", rows[1].Name)
	assert.Equal(t, "PC", rows[1].Type)

	assert.Equal(t, "NoHP", rows[2].Name)
	assert.Nil(t, rows[2].DefaultHealth)
}

func TestParseBulk(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		rows := parseBulk([]byte(`[{"type":"Monster","name":" Wolf "},{"type":"Boss","name":"Nope"},{"type":"PC","name":""}]`))
		require.Len(t, rows, 1)
		assert.Equal(t, "Wolf", rows[0].Name)
		assert.Zero(t, rows[0].ID)
	})

	t.Run("csv field", func(t *testing.T) {
		rows := parseBulk([]byte(`{"csv":"Wolf,11,Monster\nJeff,45,PC"}`))
		require.Len(t, rows, 2)
	})

	t.Run("json field", func(t *testing.T) {
		rows := parseBulk([]byte(`{"json":"[{\"type\":\"NPC\",\"name\":\"Gav\"}]"}`))
		require.Len(t, rows, 1)
		assert.Equal(t, "Gav", rows[0].Name)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Empty(t, parseBulk([]byte(`not json`)))
		assert.Empty(t, parseBulk([]byte(`{}`)))
	})
}

func TestSafeFilename(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "wolf_1700000000000.png", SafeFilename("wolf.png", now))
	assert.Equal(t, "my_wolf__1_.v2_1700000000000.png", SafeFilename("my wolf (1).v2.png", now))
	// No extension falls back to .png
	assert.Equal(t, "portrait_1700000000000.png", SafeFilename("portrait", now))
	// Path components are stripped
	assert.Equal(t, "passwd_1700000000000.png", SafeFilename("../../etc/passwd", now))
}
