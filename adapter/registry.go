package adapter

import (
	"fmt"
	"sort"
)

// AdapterFactory is a function that creates a board
type AdapterFactory func(opts Options) (HostAdapter, error)

// AdapterInfo contains information about a board type
type AdapterInfo struct {
	Kind        string
	Description string
	Factory     AdapterFactory
}

var registeredAdapters = map[string]AdapterInfo{}

// RegisterAdapter registers a board factory under its kind
func RegisterAdapter(kind, description string, factory AdapterFactory) {
	if _, dup := registeredAdapters[kind]; dup {
		panic(fmt.Sprintf("adapter: kind %q registered twice", kind))
	}
	registeredAdapters[kind] = AdapterInfo{
		Kind:        kind,
		Description: description,
		Factory:     factory,
	}
}

// New creates a board of the given kind
func New(kind string, opts Options) (HostAdapter, error) {
	info, ok := registeredAdapters[kind]
	if !ok {
		return nil, fmt.Errorf("unknown board kind %q", kind)
	}
	return info.Factory(opts)
}

// Adapters lists the registered board types by kind
func Adapters() []AdapterInfo {
	list := make([]AdapterInfo, 0, len(registeredAdapters))
	for _, info := range registeredAdapters {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Kind < list[j].Kind })
	return list
}
