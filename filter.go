package irc

import (
	"fmt"
	"sync"
)

// A FilterFunc transforms one raw line. It returns the replacement line,
// ErrDropLine to discard the line, or any other error to leave the line
// unchanged and report the failure as an exception event.
type FilterFunc func(conn *Connection, line string) (string, error)

// A Filter is a named line transform. Names exist so filters can be removed
// again; they carry no other meaning.
type Filter struct {
	Name  string
	Apply FilterFunc
}

// A FilterChain is an ordered, mutable list of filters. The connection runs
// every inbound line through one chain before parsing, and every outbound
// line through another before serialization.
type FilterChain struct {
	mu      sync.Mutex
	filters []Filter
}

// Add appends a filter to the end of the chain.
func (chain *FilterChain) Add(filter Filter) {
	chain.mu.Lock()
	chain.filters = append(chain.filters, filter)
	chain.mu.Unlock()
}

// Insert places a filter at the given position. Positions past either end
// clamp to the start or end of the chain.
func (chain *FilterChain) Insert(index int, filter Filter) {
	chain.mu.Lock()
	defer chain.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(chain.filters) {
		index = len(chain.filters)
	}

	chain.filters = append(chain.filters, Filter{})
	copy(chain.filters[index+1:], chain.filters[index:])
	chain.filters[index] = filter
}

// Remove takes out the first filter with the given name. It returns false
// if no filter matched.
func (chain *FilterChain) Remove(name string) bool {
	chain.mu.Lock()
	defer chain.mu.Unlock()

	for i := range chain.filters {
		if chain.filters[i].Name == name {
			chain.filters = append(chain.filters[:i], chain.filters[i+1:]...)
			return true
		}
	}

	return false
}

// Names lists the filters in their current order.
func (chain *FilterChain) Names() []string {
	chain.mu.Lock()
	defer chain.mu.Unlock()

	names := make([]string, len(chain.filters))
	for i := range chain.filters {
		names[i] = chain.filters[i].Name
	}

	return names
}

// run passes the line through every filter in order. A failing filter is
// treated as "no change" and reported; a dropping filter ends the run.
func (chain *FilterChain) run(conn *Connection, line string) (string, bool) {
	chain.mu.Lock()
	filters := make([]Filter, len(chain.filters))
	copy(filters, chain.filters)
	chain.mu.Unlock()

	for _, filter := range filters {
		out, err := applyFilter(conn, filter, line)
		if err == ErrDropLine {
			return "", false
		}
		if err != nil {
			conn.emitError(fmt.Errorf("filter %q: %w", filter.Name, err))
			continue
		}

		line = out
	}

	return line, true
}

// applyFilter runs one filter, converting a panic into an error so a broken
// filter cannot unwind the reader or a sender.
func applyFilter(conn *Connection, filter Filter, line string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = line, fmt.Errorf("panic: %v", r)
		}
	}()

	return filter.Apply(conn, line)
}
