package routes

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// routesFile is the on-disk shape of the override table.
type routesFile struct {
	Routes map[string]string `yaml:"routes"`
}

// Table is a static pod-to-address override table loaded from a YAML file.
//
// Entries pin a pod ID to a fixed address, consulted before any discovery
// work runs. Values must be literal ip:port, not hostnames: pins exist as
// an operator escape hatch for when name resolution or identity probing is
// misbehaving, so they cannot themselves depend on resolution.
//
// Load swaps the whole table atomically. A failed load leaves the previous
// table in place, so a half-edited file never takes out working pins.
type Table struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	pins     map[string]netip.AddrPort
	loadedAt time.Time
}

// NewTable creates an empty table backed by the given file path. The file is
// not read until Load is called.
func NewTable(path string) *Table {
	return &Table{
		path:   path,
		logger: slog.Default().With("component", "routes"),
		pins:   make(map[string]netip.AddrPort),
	}
}

// Path returns the backing file path.
func (t *Table) Path() string {
	return t.path
}

// Load reads the backing file and replaces the table contents. On any error
// the current contents are kept unchanged.
func (t *Table) Load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("failed to read routes file %q: %w", t.path, err)
	}

	pins, err := parseRoutes(data)
	if err != nil {
		return fmt.Errorf("failed to parse routes file %q: %w", t.path, err)
	}

	t.mu.Lock()
	t.pins = pins
	t.loadedAt = time.Now()
	t.mu.Unlock()

	t.logger.Info("route overrides loaded",
		"path", t.path,
		"entries", len(pins),
	)
	return nil
}

// parseRoutes validates and converts the file contents. The whole file is
// rejected on the first bad entry: a partially applied pin table would send
// some pods to their pin and others through discovery, which is harder to
// debug than an unapplied edit.
func parseRoutes(data []byte) (map[string]netip.AddrPort, error) {
	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	pins := make(map[string]netip.AddrPort, len(file.Routes))
	for podID, value := range file.Routes {
		if podID == "" {
			return nil, fmt.Errorf("empty pod id")
		}
		if strings.Contains(podID, "/") {
			return nil, fmt.Errorf("pod id %q contains a path separator", podID)
		}

		addr, err := netip.ParseAddrPort(value)
		if err != nil {
			return nil, fmt.Errorf("pod %q: address %q is not ip:port: %w", podID, value, err)
		}
		pins[podID] = addr
	}

	return pins, nil
}

// Lookup returns the pinned address for a pod ID, if one exists.
func (t *Table) Lookup(podID string) (netip.AddrPort, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.pins[podID]
	return addr, ok
}

// Len returns the number of pinned pods.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pins)
}

// PodIDs returns the pinned pod IDs in sorted order.
func (t *Table) PodIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.pins))
	for id := range t.pins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadedAt returns when the table was last successfully loaded.
func (t *Table) LoadedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadedAt
}
