package isupport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthlink/irc/isupport"
)

var advertised = "CHANTYPES=#& CHANMODES=eIbq,k,flj,CFLNPQcgimnprstz PREFIX=(aohv)~@%+ NETWORK=TestNet NICKLEN=30 SAFELIST"

func newTable() *isupport.Table {
	table := &isupport.Table{}
	for _, token := range strings.Split(advertised, " ") {
		pair := strings.SplitN(token, "=", 2)
		if len(pair) == 2 {
			table.Set(pair[0], pair[1])
		} else {
			table.Set(pair[0], "")
		}
	}

	return table
}

func TestTableGet(t *testing.T) {
	table := newTable()

	network, ok := table.Get("NETWORK")
	assert.True(t, ok)
	assert.Equal(t, "TestNet", network)

	nickLen, ok := table.Number("NICKLEN")
	assert.True(t, ok)
	assert.Equal(t, 30, nickLen)

	_, ok = table.Get("MONITOR")
	assert.False(t, ok)

	safelist, ok := table.Get("safelist")
	assert.True(t, ok)
	assert.Equal(t, "", safelist)
}

func TestTablePrefix(t *testing.T) {
	table := newTable()

	assert.Equal(t, 'o', table.Mode('@'))
	assert.Equal(t, '@', table.Symbol('o'))
	assert.Equal(t, '%', table.Symbol('h'))
	assert.Equal(t, rune(0), table.Symbol('x'))
	assert.Equal(t, rune(0), table.Mode('#'))

	assert.True(t, table.IsPrefixMode('v'))
	assert.True(t, table.IsPrefixMode('a'))
	assert.False(t, table.IsPrefixMode('b'))
	assert.True(t, table.IsPrefixSymbol('~'))
	assert.False(t, table.IsPrefixSymbol('!'))
}

func TestTableSymbolOrdering(t *testing.T) {
	table := newTable()

	assert.True(t, table.IsSymbolHigher('~', '@'))
	assert.True(t, table.IsSymbolHigher('@', '+'))
	assert.False(t, table.IsSymbolHigher('+', '@'))
	assert.True(t, table.IsSymbolHigher('@', 0))
	assert.False(t, table.IsSymbolHigher(0, '@'))
	assert.False(t, table.IsSymbolHigher('@', '@'))

	assert.Equal(t, "~@%+", table.SortSymbols("+%@~"))
	assert.Equal(t, "@+", table.SortSymbols("+@"))
	assert.Equal(t, "@", table.SortSymbols("@@!"))
}

func TestTableStripSymbols(t *testing.T) {
	table := newTable()

	table2 := [](struct{ token, rest, symbols string }){
		{"Alice", "Alice", ""},
		{"@Alice", "Alice", "@"},
		{"@+Alice", "Alice", "@+"},
		{"~Alice!a@example.com", "Alice!a@example.com", "~"},
		{"+", "", "+"},
	}

	for _, row := range table2 {
		rest, symbols := table.StripSymbols(row.token)
		assert.Equal(t, row.rest, rest, row.token)
		assert.Equal(t, row.symbols, symbols, row.token)
	}
}

func TestTableChanModes(t *testing.T) {
	table := newTable()

	assert.Equal(t, 0, table.ChanModeType('b'))
	assert.Equal(t, 1, table.ChanModeType('k'))
	assert.Equal(t, 1, table.ChanModeType('o')) // prefix modes act like group 1
	assert.Equal(t, 2, table.ChanModeType('l'))
	assert.Equal(t, 3, table.ChanModeType('m'))
	assert.Equal(t, -1, table.ChanModeType('X'))

	assert.True(t, table.TakesParameter('b', true))
	assert.True(t, table.TakesParameter('b', false))
	assert.True(t, table.TakesParameter('k', false))
	assert.True(t, table.TakesParameter('o', true))
	assert.True(t, table.TakesParameter('l', true))
	assert.False(t, table.TakesParameter('l', false))
	assert.False(t, table.TakesParameter('m', true))
	assert.False(t, table.TakesParameter('X', true))
}

func TestTableIsChannel(t *testing.T) {
	table := newTable()

	assert.True(t, table.IsChannel("#chat"))
	assert.True(t, table.IsChannel("&local"))
	assert.False(t, table.IsChannel("Alice"))
	assert.False(t, table.IsChannel(""))

	// Without CHANTYPES the common channel sigils are assumed.
	empty := &isupport.Table{}
	assert.True(t, empty.IsChannel("#chat"))
	assert.False(t, empty.IsChannel("+stuff"))
}

func TestTableEnsureDefaults(t *testing.T) {
	table := &isupport.Table{}

	// The zero table knows nothing.
	assert.False(t, table.IsPrefixMode('o'))

	table.EnsureDefaults()
	assert.True(t, table.IsPrefixMode('o'))
	assert.True(t, table.IsPrefixMode('h'))
	assert.Equal(t, '@', table.Symbol('o'))
	assert.Equal(t, '%', table.Symbol('h'))
	assert.Equal(t, '+', table.Symbol('v'))
	assert.Equal(t, 0, table.ChanModeType('b'))
	assert.Equal(t, 3, table.ChanModeType('i'))

	// A real advertisement is not overwritten by later defaults.
	table = &isupport.Table{}
	table.Set("PREFIX", "(ov)@+")
	table.EnsureDefaults()
	assert.False(t, table.IsPrefixMode('h'))
	assert.Equal(t, 0, table.ChanModeType('b'))
}

func TestTableReset(t *testing.T) {
	table := newTable()
	table.Reset()

	_, ok := table.Get("NETWORK")
	assert.False(t, ok)
	assert.False(t, table.IsPrefixMode('o'))
	assert.Equal(t, -1, table.ChanModeType('b'))
}
