package overlay

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// MemoryMap is a Map without a screen. It keeps sources, layers and images
// in memory and can export every GeoJSON source as one collection, which
// lets headless callers persist what an interactive map would draw.
type MemoryMap struct {
	mu       sync.Mutex
	images   map[string]StyleImage
	sources  map[string]Source
	layers   map[string]Layer
	camera   FlyToOptions
	repaints int
}

func NewMemoryMap() *MemoryMap {
	return &MemoryMap{
		images:  make(map[string]StyleImage),
		sources: make(map[string]Source),
		layers:  make(map[string]Layer),
	}
}

func (m *MemoryMap) AddImage(id string, img StyleImage, _ ImageOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; ok {
		return eris.Errorf("overlay: image %q already exists", id)
	}
	m.images[id] = img
	return nil
}

func (m *MemoryMap) HasImage(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[id]
	return ok
}

func (m *MemoryMap) RemoveImage(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, id)
}

func (m *MemoryMap) AddSource(id string, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[id]; ok {
		return eris.Errorf("overlay: source %q already exists", id)
	}
	m.sources[id] = src
	return nil
}

func (m *MemoryMap) HasSource(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sources[id]
	return ok
}

// RemoveSource drops a source. Layers still referencing it keep it alive,
// as on a real map.
func (m *MemoryMap) RemoveSource(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.layers {
		if l.Source == id {
			return
		}
	}
	delete(m.sources, id)
}

func (m *MemoryMap) SetSourceData(id string, data json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return eris.Errorf("overlay: no source %q", id)
	}
	src.Data = data
	m.sources[id] = src
	return nil
}

func (m *MemoryMap) AddLayer(layer Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[layer.ID]; ok {
		return eris.Errorf("overlay: layer %q already exists", layer.ID)
	}
	if _, ok := m.sources[layer.Source]; !ok {
		return eris.Errorf("overlay: layer %q references missing source %q", layer.ID, layer.Source)
	}
	m.layers[layer.ID] = layer
	return nil
}

func (m *MemoryMap) HasLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.layers[id]
	return ok
}

func (m *MemoryMap) RemoveLayer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.layers, id)
}

func (m *MemoryMap) FlyTo(opts FlyToOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.camera = opts
}

func (m *MemoryMap) TriggerRepaint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repaints++
}

// Camera returns the target of the last FlyTo.
func (m *MemoryMap) Camera() FlyToOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.camera
}

// Export merges the features of every GeoJSON source, ordered by source
// id, tagging each with a "source" property.
func (m *MemoryMap) Export() (json.RawMessage, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sources))
	for id, src := range m.sources {
		if src.Type == "geojson" && len(src.Data) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	data := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		data[i] = m.sources[id].Data
	}
	m.mu.Unlock()

	out := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for i, id := range ids {
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data[i], &fc); err != nil {
			return nil, eris.Wrapf(err, "overlay: decode source %q", id)
		}
		for _, f := range fc.Features {
			if f.Properties == nil {
				f.Properties = make(map[string]any)
			}
			f.Properties["source"] = id
			out.Features = append(out.Features, f)
		}
	}

	encoded, err := out.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "overlay: encode export")
	}
	return encoded, nil
}
