package source

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/jward/treemerge/internal/metadata"
)

// DirSource reads one target's modules from a directory (or any afs URL)
// holding one YAML document per module.
type DirSource struct {
	name    string
	baseURL string
	fs      afs.Service

	mu    sync.Mutex
	index map[string]string // module name -> URL
}

// NewDirSource creates a source for target name rooted at baseURL.
func NewDirSource(name, baseURL string) *DirSource {
	return &DirSource{name: name, baseURL: baseURL, fs: afs.New()}
}

// Name is the target name.
func (d *DirSource) Name() string { return d.name }

// BaseURL is the location modules are read from.
func (d *DirSource) BaseURL() string { return d.baseURL }

// moduleHeader decodes only the listing-level fields of a module document.
type moduleHeader struct {
	Name    string                      `yaml:"name"`
	Interop *metadata.InteropAttributes `yaml:"interop,omitempty"`
}

// Modules lists the module documents under the base URL, sorted by name.
func (d *DirSource) Modules(ctx context.Context) ([]metadata.ModuleDescriptor, error) {
	objects, err := d.fs.List(ctx, d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("source: list %s: %w", d.baseURL, err)
	}
	index := make(map[string]string)
	var descs []metadata.ModuleDescriptor
	for _, obj := range objects {
		if obj.IsDir() || !isModuleDocument(obj.Name()) {
			continue
		}
		data, err := d.fs.DownloadWithURL(ctx, obj.URL())
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", obj.URL(), err)
		}
		var h moduleHeader
		if err := yaml.Unmarshal(data, &h); err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", obj.URL(), err)
		}
		if h.Name == "" {
			h.Name = strings.TrimSuffix(obj.Name(), path.Ext(obj.Name()))
		}
		if prev, dup := index[h.Name]; dup {
			return nil, fmt.Errorf("source: module %s declared by both %s and %s", h.Name, prev, obj.URL())
		}
		index[h.Name] = obj.URL()
		descs = append(descs, metadata.ModuleDescriptor{Name: h.Name, Interop: h.Interop})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
	return descs, nil
}

// LoadModule reads and decodes the named module. The returned value is not
// retained by the source.
func (d *DirSource) LoadModule(ctx context.Context, name string) (*metadata.Module, error) {
	d.mu.Lock()
	index := d.index
	d.mu.Unlock()
	if index == nil {
		if _, err := d.Modules(ctx); err != nil {
			return nil, err
		}
		d.mu.Lock()
		index = d.index
		d.mu.Unlock()
	}
	URL, ok := index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in target %s", ErrUnknownModule, name, d.name)
	}
	data, err := d.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", URL, err)
	}
	return DecodeModule(data, name)
}

// DecodeModule decodes a YAML module document. fallbackName is used when
// the document does not name itself.
func DecodeModule(data []byte, fallbackName string) (*metadata.Module, error) {
	mod := &metadata.Module{}
	if err := yaml.Unmarshal(data, mod); err != nil {
		return nil, fmt.Errorf("source: decode module %s: %w", fallbackName, err)
	}
	if mod.Name == "" {
		mod.Name = fallbackName
	}
	return mod, nil
}

func isModuleDocument(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
