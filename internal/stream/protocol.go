package stream

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// OpenFunc opens a stream for a registered protocol.
type OpenFunc func(protocol, path string, param any) (Stream, error)

var (
	// ErrDuplicateProtocol is returned when a protocol name is registered twice.
	ErrDuplicateProtocol = errors.New("protocol already registered")
	// ErrUnknownProtocol is returned by Open for unregistered names.
	ErrUnknownProtocol = errors.New("unknown protocol")
)

// Protocols maps protocol names to open callbacks. Names are compared after
// NFC normalization. The zero value is not usable; call NewProtocols.
type Protocols struct {
	mu    sync.RWMutex
	table map[string]OpenFunc
}

// NewProtocols creates a registry with the built-in file and memory protocols.
func NewProtocols() *Protocols {
	p := &Protocols{table: make(map[string]OpenFunc)}
	p.table["file"] = openFile
	p.table["memory"] = openMemory
	return p
}

// Register adds a protocol. Registration is permanent.
func (p *Protocols) Register(name string, open OpenFunc) error {
	name = norm.NFC.String(name)
	if name == "" {
		return fmt.Errorf("register protocol: empty name")
	}
	if open == nil {
		return fmt.Errorf("register protocol %q: nil open callback", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.table[name]; ok {
		return fmt.Errorf("register protocol %q: %w", name, ErrDuplicateProtocol)
	}
	p.table[name] = open
	return nil
}

// Open resolves protocol and opens path with it.
func (p *Protocols) Open(protocol, path string, param any) (Stream, error) {
	protocol = norm.NFC.String(protocol)

	p.mu.RLock()
	open, ok := p.table[protocol]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %q: %w", protocol, ErrUnknownProtocol)
	}

	s, err := open(protocol, path, param)
	if err != nil {
		return nil, wrap("open", err)
	}
	if s == nil {
		return nil, &Error{Op: "open", Message: fmt.Sprintf("protocol %q returned no stream", protocol)}
	}
	return s, nil
}

// Names returns the registered protocol names in sorted order.
func (p *Protocols) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.table))
	for name := range p.table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
