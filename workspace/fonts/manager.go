// Copyright © 2025 The typls authors

package fonts

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/exp/mmap"
	"golang.org/x/image/font/sfnt"
)

// slot is one entry of the font vector. Embedded slots carry their data
// up front; disk slots record the file and collection index and load
// lazily on first Font call.
type slot struct {
	info  FontInfo
	data  []byte // embedded face data, nil for disk slots
	path  string
	index int // face index within a collection file

	face *lazyFace
}

// lazyFace materializes a face at most once. Clear swaps in a fresh cell
// rather than resetting the sync.Once, closing the old cell's reader.
type lazyFace struct {
	once   sync.Once
	font   *Font
	reader io.Closer // mmap backing a disk face, nil for embedded slots
}

// Manager owns the font slots and the book handed to the compiler. The
// slot vector is append-only between rebuilds; face materialization is
// at-most-once per slot.
type Manager struct {
	slots []*slot
	book  *Book
}

// NewManager scans the system font directories plus the configured
// search paths and builds the slot vector. Embedded faces always occupy
// the first slots.
func NewManager(fontPaths []string) *Manager {
	m := &Manager{}
	m.rebuild(fontPaths)
	return m
}

func (m *Manager) rebuild(fontPaths []string) {
	for _, sl := range m.slots {
		if sl.face.reader != nil {
			sl.face.reader.Close()
		}
	}
	m.slots = nil
	for _, ef := range embeddedFonts() {
		m.slots = append(m.slots, &slot{info: ef.info, data: ef.data, face: &lazyFace{}})
	}
	dirs := append(systemFontDirs(), fontPaths...)
	for _, dir := range dirs {
		m.scanDir(dir)
	}
	infos := make([]FontInfo, len(m.slots))
	for i, sl := range m.slots {
		infos[i] = sl.info
	}
	m.book = &Book{infos: infos}
}

// Book returns the current metadata book.
func (m *Manager) Book() *Book { return m.book }

// Font materializes the face at a slot index, loading disk-backed faces
// through a memory-mapped reader on first use. Returns nil for invalid
// indexes and unparseable files.
func (m *Manager) Font(index int) *Font {
	if index < 0 || index >= len(m.slots) {
		return nil
	}
	sl := m.slots[index]
	cell := sl.face
	cell.once.Do(func() {
		cell.font, cell.reader = loadFace(sl)
	})
	return cell.font
}

// Clear drops the lazily loaded faces of disk slots and unmaps their
// backing files. Embedded faces stay resident; the book and slot
// indexes are unchanged.
func (m *Manager) Clear() {
	for _, sl := range m.slots {
		if sl.data == nil {
			if sl.face.reader != nil {
				sl.face.reader.Close()
			}
			sl.face = &lazyFace{}
		}
	}
}

// SetFontPaths rebuilds the slot vector with a new set of configured
// search directories. Slot indexes are only stable within one rebuild.
func (m *Manager) SetFontPaths(fontPaths []string) {
	m.rebuild(fontPaths)
}

// loadFace parses the face for a slot. For disk slots the returned
// reader backs the parsed font's tables and must stay open until the
// face is dropped.
func loadFace(sl *slot) (*Font, io.Closer) {
	if sl.data != nil {
		f, err := sfnt.Parse(sl.data)
		if err != nil {
			return nil, nil
		}
		return &Font{SFNT: f, Data: sl.data, Info: sl.info}, nil
	}
	r, err := mmap.Open(sl.path)
	if err != nil {
		return nil, nil
	}
	if isCollectionPath(sl.path) {
		coll, err := sfnt.ParseCollectionReaderAt(r)
		if err != nil {
			r.Close()
			return nil, nil
		}
		f, err := coll.Font(sl.index)
		if err != nil {
			r.Close()
			return nil, nil
		}
		return &Font{SFNT: f, Info: sl.info}, r
	}
	f, err := sfnt.ParseReaderAt(r)
	if err != nil {
		r.Close()
		return nil, nil
	}
	return &Font{SFNT: f, Info: sl.info}, r
}

// scanDir walks a directory collecting face metadata without keeping
// faces resident.
func (m *Manager) scanDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if d.IsDir() || !isFontPath(path) {
			return nil
		}
		m.scanFile(path)
		return nil
	})
}

// scanFile parses a font file once to extract per-face metadata, then
// discards the parse. Face data reloads lazily when the compiler asks.
func (m *Manager) scanFile(path string) {
	r, err := mmap.Open(path)
	if err != nil {
		return
	}
	defer r.Close()
	if isCollectionPath(path) {
		coll, err := sfnt.ParseCollectionReaderAt(r)
		if err != nil {
			return
		}
		for i := 0; i < coll.NumFonts(); i++ {
			f, err := coll.Font(i)
			if err != nil {
				continue
			}
			m.slots = append(m.slots, &slot{info: faceInfo(f), path: path, index: i, face: &lazyFace{}})
		}
		return
	}
	f, err := sfnt.ParseReaderAt(r)
	if err != nil {
		return
	}
	m.slots = append(m.slots, &slot{info: faceInfo(f), path: path, face: &lazyFace{}})
}

// faceInfo extracts family and variant from the name table.
func faceInfo(f *sfnt.Font) FontInfo {
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || family == "" {
		family = "Unknown"
	}
	sub, _ := f.Name(&buf, sfnt.NameIDSubfamily)
	sub = strings.ToLower(sub)
	variant := Variant{Style: StyleNormal, Weight: 400}
	if strings.Contains(sub, "italic") || strings.Contains(sub, "oblique") {
		variant.Style = StyleItalic
	}
	switch {
	case strings.Contains(sub, "thin"):
		variant.Weight = 100
	case strings.Contains(sub, "extralight"), strings.Contains(sub, "ultralight"):
		variant.Weight = 200
	case strings.Contains(sub, "light"):
		variant.Weight = 300
	case strings.Contains(sub, "medium"):
		variant.Weight = 500
	case strings.Contains(sub, "semibold"), strings.Contains(sub, "demibold"):
		variant.Weight = 600
	case strings.Contains(sub, "extrabold"), strings.Contains(sub, "ultrabold"):
		variant.Weight = 800
	case strings.Contains(sub, "bold"):
		variant.Weight = 700
	case strings.Contains(sub, "black"), strings.Contains(sub, "heavy"):
		variant.Weight = 900
	}
	return FontInfo{Family: family, Variant: variant}
}

func isFontPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return false
}

func isCollectionPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		return true
	}
	return false
}

// systemFontDirs returns the platform font directories to scan.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		dirs := []string{"/Library/Fonts", "/System/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	case "windows":
		var dirs []string
		if windir := os.Getenv("WINDIR"); windir != "" {
			dirs = append(dirs, filepath.Join(windir, "Fonts"))
		}
		if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
			dirs = append(dirs, filepath.Join(appdata, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
		}
		return dirs
	}
}
