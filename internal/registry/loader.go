package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"github.com/go-omxil/omxilcore/internal/logging"
)

// rcFileName is the fixed basename for the plugin list file; only
// $HOME is consulted to locate it.
const rcFileName = ".omxilmfrc"

// LibEntry is the symbol every plugin shared object exports, the Go
// equivalent of the C ABI's OMX_MF_LibEntry. It receives the registry
// so it can call RegisterComponent/RegisterComponentAlias/
// RegisterComponentRole directly rather than through package-level
// globals, in place of callbacks into static registry functions.
type LibEntry func(r *Registry) error

// LoadRCFile reads the user's plugin list and loads each one into r.
// A missing rc file is not an error (nothing to load); a missing or
// unloadable individual plugin is logged and skipped rather than
// aborting the whole load.
func LoadRCFile(r *Registry) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("registry: resolve $HOME: %w", err)
	}
	path := filepath.Join(home, rcFileName)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("registry: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := LoadPlugin(r, line); err != nil {
			logging.Default().Warnf("registry: skipping plugin %s: %v", line, err)
		}
	}
	return scanner.Err()
}

// LoadPlugin opens a single shared object and invokes its exported
// OMX_MF_LibEntry symbol.
func LoadPlugin(r *Registry, path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	sym, err := p.Lookup("OMX_MF_LibEntry")
	if err != nil {
		return fmt.Errorf("lookup OMX_MF_LibEntry: %w", err)
	}
	entry, ok := sym.(LibEntry)
	if !ok {
		return fmt.Errorf("OMX_MF_LibEntry has unexpected signature")
	}
	if err := entry(r); err != nil {
		return fmt.Errorf("OMX_MF_LibEntry: %w", err)
	}
	return nil
}
