// Package isupport keeps track of the capabilities a server advertises
// through the 005 (ISUPPORT) numeric, most importantly PREFIX and CHANMODES.
// A Table is thread-safe through a reader/writer lock, so the locks will only
// block in the short duration post-registration when the 005s come in.
package isupport

import (
	"strconv"
	"strings"
	"sync"
)

// Fallback values used when the server never advertises PREFIX or CHANMODES.
// They are applied lazily, the first time MODE processing needs them, since
// some servers send their 005 late or not at all.
const (
	DefaultPrefix    = "(ohv)@%+"
	DefaultChanModes = "b,k,l,imnpstr"
	defaultChanTypes = "#&"
)

// A Table holds the server's advertised capabilities. The zero value is
// usable and empty; Set repopulates it as 005 tokens arrive, and Reset
// clears it for the next connection.
type Table struct {
	mu sync.RWMutex

	raw map[string]string

	// PREFIX, index-aligned and ordered most powerful first.
	modeOrder   string // e.g. "ov"
	symbolOrder string // e.g. "@+"
	bySymbol    map[rune]rune // '@' -> 'o'
	byMode      map[rune]rune // 'o' -> '@'

	// CHANMODES split into its four comma-separated groups:
	// list-type, always-parameter, parameter-on-set-only, never-parameter.
	chanModes []string
}

// Set stores a raw key/value pair and, for PREFIX and CHANMODES, updates the
// parsed lookup structures. Values are only replaced, never merged.
func (t *Table) Set(key, value string) {
	key = strings.ToUpper(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.raw == nil {
		t.raw = make(map[string]string, 32)
	}
	t.raw[key] = value

	switch key {
	case "PREFIX": // PREFIX=(ov)@+
		t.setPrefix(value)
	case "CHANMODES": // CHANMODES=eIbq,k,flj,CFLNPQcgimnprstz
		t.chanModes = strings.Split(value, ",")
	}
}

func (t *Table) setPrefix(value string) {
	if !strings.HasPrefix(value, "(") {
		return
	}

	split := strings.SplitN(value[1:], ")", 2)
	if len(split) != 2 || len(split[0]) != len(split[1]) {
		return
	}

	t.modeOrder = split[0]
	t.symbolOrder = split[1]
	t.bySymbol = make(map[rune]rune, len(split[0]))
	t.byMode = make(map[rune]rune, len(split[0]))
	for i, mode := range split[0] {
		symbol := rune(split[1][i])
		t.bySymbol[symbol] = mode
		t.byMode[mode] = symbol
	}
}

// EnsureDefaults installs the fallback PREFIX and CHANMODES if the server has
// not declared them yet. It must be called before mode parsing rather than at
// connect time, to keep the window open for a late 005.
func (t *Table) EnsureDefaults() {
	t.mu.RLock()
	hasPrefix := t.modeOrder != ""
	hasModes := t.chanModes != nil
	t.mu.RUnlock()

	if !hasPrefix {
		t.Set("PREFIX", DefaultPrefix)
	}
	if !hasModes {
		t.Set("CHANMODES", DefaultChanModes)
	}
}

// Get gets a raw isupport value. This is unprocessed data; use a helper
// where one exists.
func (t *Table) Get(key string) (value string, ok bool) {
	t.mu.RLock()
	value, ok = t.raw[strings.ToUpper(key)]
	t.mu.RUnlock()
	return
}

// Number gets a raw value and converts it to a number.
func (t *Table) Number(key string) (value int, ok bool) {
	strValue, ok := t.Get(key)
	if !ok {
		return 0, false
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Mode resolves a display symbol to its mode letter, e.g. '@' -> 'o'.
// It returns 0 for anything that is not a declared prefix symbol.
func (t *Table) Mode(symbol rune) rune {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.bySymbol[symbol]
}

// Symbol resolves a mode letter to its display symbol, e.g. 'o' -> '@'.
// It returns 0 for anything that is not a declared prefix mode.
func (t *Table) Symbol(mode rune) rune {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.byMode[mode]
}

// IsPrefixMode returns true if the mode letter grants a channel-user prefix.
func (t *Table) IsPrefixMode(mode rune) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return strings.ContainsRune(t.modeOrder, mode)
}

// IsPrefixSymbol returns true if the rune is a declared display symbol.
func (t *Table) IsPrefixSymbol(symbol rune) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return strings.ContainsRune(t.symbolOrder, symbol)
}

// IsSymbolHigher returns true if symbol a outranks symbol b. An unknown or
// missing symbol always loses.
func (t *Table) IsSymbolHigher(a, b rune) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if a == b || a == 0 {
		return false
	}
	if b == 0 {
		return true
	}

	for _, symbol := range t.symbolOrder {
		switch symbol {
		case a:
			return true
		case b:
			return false
		}
	}

	return false
}

// SortSymbols returns the prefix symbols ordered most powerful first,
// dropping duplicates and anything the server never declared.
func (t *Table) SortSymbols(symbols string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := ""
	for _, symbol := range t.symbolOrder {
		if strings.ContainsRune(symbols, symbol) {
			result += string(symbol)
		}
	}

	return result
}

// StripSymbols splits a NAMES token into its leading prefix symbols and the
// rest, e.g. "@+Alice" -> ("Alice", "@+").
func (t *Table) StripSymbols(token string) (rest, symbols string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rest = token
	for i, ch := range token {
		if _, ok := t.bySymbol[ch]; !ok {
			rest = token[i:]
			break
		}

		symbols += string(ch)
		rest = token[i+1:]
	}

	return rest, symbols
}

// ChanModeType returns the CHANMODES group (0 through 3) a mode letter
// belongs to, or -1 if it is in no group. Prefix modes behave like group 1
// (always-parameter) and are reported as such.
func (t *Table) ChanModeType(mode rune) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if strings.ContainsRune(t.modeOrder, mode) {
		return 1
	}

	for i, group := range t.chanModes {
		if strings.ContainsRune(group, mode) {
			return i
		}
	}

	return -1
}

// TakesParameter reports whether a mode letter consumes a parameter in the
// given direction. List-type and always-parameter modes (and prefix modes)
// always do, set-only modes do only when setting, and everything else never
// does.
func (t *Table) TakesParameter(mode rune, set bool) bool {
	switch t.ChanModeType(mode) {
	case 0, 1:
		return true
	case 2:
		return set
	default:
		return false
	}
}

// IsChannel returns whether the target name is a channel.
func (t *Table) IsChannel(targetName string) bool {
	if targetName == "" {
		return false
	}

	t.mu.RLock()
	chanTypes, ok := t.raw["CHANTYPES"]
	t.mu.RUnlock()

	if !ok {
		chanTypes = defaultChanTypes
	}

	return strings.ContainsRune(chanTypes, rune(targetName[0]))
}

// Reset clears everything for the next connection.
func (t *Table) Reset() {
	t.mu.Lock()
	t.modeOrder = ""
	t.symbolOrder = ""
	t.bySymbol = nil
	t.byMode = nil
	t.chanModes = nil

	for key := range t.raw {
		delete(t.raw, key)
	}
	t.mu.Unlock()
}
