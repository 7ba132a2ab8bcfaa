package csvimport

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromBytes_Rows(t *testing.T) {
	data := "\xEF\xBB\xBF Line ID ,Item,Quantity\n" +
		"L-1, KIT-100 ,2\n" +
		",,\n" +
		"L-2,\"Widget, large\"\n"

	p, err := ParseFromBytes([]byte(data))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"Line ID", "Item", "Quantity"}, p.Headers())

	rows, err := p.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, map[string]string{"Line ID": "L-1", "Item": "KIT-100", "Quantity": "2"}, rows[0].Data)

	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "Widget, large", rows[1].Get("Item"))
	assert.Equal(t, "", rows[1].Get("Quantity"), "short rows fill missing columns")
}

func TestParseFromBytes_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ParseFromBytes(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("bom only", func(t *testing.T) {
		_, err := ParseFromBytes(utf8BOM)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("not utf-8", func(t *testing.T) {
		_, err := ParseFromBytes([]byte("id,name\n1,\xff\xfe\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("probe ends inside a rune", func(t *testing.T) {
		data := strings.Repeat("a", encodingProbe-1) + "é"
		_, err := ParseFromBytes([]byte(data))
		assert.NoError(t, err)
	})
}

func TestCSVParser_MalformedRow(t *testing.T) {
	p, err := ParseFromBytes([]byte("id,name\n1,ok\n2,\"bad\"x\n"), WithLazyQuotes(false))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAllRows()
	require.Len(t, rows, 1)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Contains(t, rowErr.Error(), "row 3")
}

func TestCSVParser_Delimiter(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("a;b\n1;2\n"), WithDelimiter(';'))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "2", row.Get("b"))

	_, err = p.ReadRow()
	assert.Equal(t, io.EOF, err)
}
