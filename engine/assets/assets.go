package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeImage
	AssetTypeShader
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeImage:
		return "image"
	case AssetTypeShader:
		return "shader"
	}
	return "none"
}

type AssetInfo struct {
	// Slash separated, relative to the assets directory.
	Name    string
	Path    string
	Type    AssetType
	ModTime time.Time
}

type Config struct {
	Dir       string
	ShaderDir string
	// Watch the directory and report changed assets through Changes.
	Watch bool
}

// AssetManager indexes the assets directory. With watching enabled a
// goroutine keeps the index current and queues the names of changed assets
// until the event loop drains them.
type AssetManager struct {
	dir     string
	shaders *loaders.ShaderLoader

	mutex   sync.RWMutex
	assets  map[string]AssetInfo
	changed []string

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewAssetManager(cfg Config) (*AssetManager, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	shaderDir := cfg.ShaderDir
	if shaderDir == "" {
		shaderDir = filepath.Join(dir, "shaders")
	}

	am := &AssetManager{
		dir:     dir,
		shaders: &loaders.ShaderLoader{Dir: shaderDir},
		assets:  make(map[string]AssetInfo),
		done:    make(chan struct{}),
	}

	if cfg.Watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		am.fsnotify = fsWatch
	}

	if err := am.watchRecursive(dir); err != nil {
		am.Close()
		return nil, fmt.Errorf("failed to index assets in %s: %w", dir, err)
	}

	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}
	core.LogInfo("indexed %d assets in %s (watch=%t)", len(am.assets), dir, cfg.Watch)
	return am, nil
}

func (am *AssetManager) Dir() string {
	return am.dir
}

// Shaders resolves pipeline shaders from the shader directory.
func (am *AssetManager) Shaders() renderer.ShaderSource {
	return am.shaders
}

func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[name]
	return info, ok
}

// Assets lists the indexed assets sorted by name.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadImage decodes the named image asset to RGBA8.
func (am *AssetManager) LoadImage(name string) (*image.RGBA, error) {
	return loaders.LoadImage(filepath.Join(am.dir, filepath.FromSlash(name)))
}

// Changes returns the names of assets written since the last call, each once.
func (am *AssetManager) Changes() []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	out := am.changed
	am.changed = nil
	return out
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.fsnotify == nil {
		return nil
	}
	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
			return
		}
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if name, ok := am.handleFileEvent(e.Name); ok {
			am.markChanged(name)
		}
	}
	// A removed path can no longer be stat'ed, so it is dropped from both the
	// index and the watch list whatever it was.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		if err := am.fsnotify.Remove(e.Name); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			core.LogDebug("unwatch %s: %s", e.Name, err)
		}
	}
}

// watchRecursive indexes every file under path and, when watching, adds
// every directory to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify != nil {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent (re)indexes a created or modified file.
func (am *AssetManager) handleFileEvent(path string) (string, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return "", false
	}
	name, err := am.relative(path)
	if err != nil {
		return "", false
	}
	info := AssetInfo{Name: name, Path: path, Type: assetType}
	if s, err := os.Stat(path); err == nil {
		info.ModTime = s.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[name] = info
	return name, true
}

func (am *AssetManager) markChanged(name string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	for _, c := range am.changed {
		if c == name {
			return
		}
	}
	am.changed = append(am.changed, name)
}

func (am *AssetManager) removeAsset(path string) {
	name, err := am.relative(path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, name)
}

func (am *AssetManager) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(am.dir, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	case ".spv", ".wgsl":
		return AssetTypeShader
	default:
		return AssetTypeNone
	}
}
