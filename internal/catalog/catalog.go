// Package catalog discovers the shader and video assets available for
// mixing. Snapshots are rebuilt from disk on every call; catalogs are small
// and freshness matters more than scan cost here.
package catalog

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type ShaderAsset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type VideoAsset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// Snapshot is an immutable view of the asset roots at scan time.
type Snapshot struct {
	Shaders []ShaderAsset `json:"shaders"`
	Videos  []VideoAsset  `json:"videos"`
}

type Scanner struct {
	ShaderDir string
	VideoDir  string
}

var shaderExts = map[string]bool{".frag": true, ".glsl": true, ".fs": true}
var videoExts = map[string]bool{".mp4": true, ".webm": true, ".mov": true}

// StreamPathPrefix is the URL prefix video asset URLs resolve under.
const StreamPathPrefix = "/stream/mp4/"

// Scan walks both roots and returns what it finds. A missing or unreadable
// root yields an empty list, not an error: an empty catalog is a valid
// catalog.
func (s *Scanner) Scan() Snapshot {
	snap := Snapshot{
		Shaders: []ShaderAsset{},
		Videos:  []VideoAsset{},
	}
	snap.Shaders = s.scanShaders()
	snap.Videos = s.scanVideos()
	return snap
}

func (s *Scanner) scanShaders() []ShaderAsset {
	shaders := []ShaderAsset{}
	entries, err := os.ReadDir(s.ShaderDir)
	if err != nil {
		return shaders
	}
	for _, e := range entries {
		if e.IsDir() || !shaderExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		code, err := os.ReadFile(filepath.Join(s.ShaderDir, e.Name()))
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		shaders = append(shaders, ShaderAsset{ID: id, Name: id, Code: string(code)})
	}
	sort.Slice(shaders, func(i, j int) bool { return shaders[i].ID < shaders[j].ID })
	return shaders
}

func (s *Scanner) scanVideos() []VideoAsset {
	videos := []VideoAsset{}
	entries, err := os.ReadDir(s.VideoDir)
	if err != nil {
		return videos
	}
	for _, e := range entries {
		if e.IsDir() {
			videos = append(videos, s.scanCategory(e.Name())...)
			continue
		}
		if v, ok := videoAsset("", e.Name()); ok {
			videos = append(videos, v)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos
}

func (s *Scanner) scanCategory(category string) []VideoAsset {
	videos := []VideoAsset{}
	entries, err := os.ReadDir(filepath.Join(s.VideoDir, category))
	if err != nil {
		return videos
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if v, ok := videoAsset(category, e.Name()); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

func videoAsset(category, filename string) (VideoAsset, bool) {
	if !videoExts[strings.ToLower(filepath.Ext(filename))] {
		return VideoAsset{}, false
	}
	id := filename
	if category != "" {
		id = path.Join(category, filename)
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return VideoAsset{
		ID:       id,
		Name:     name,
		Category: category,
		URL:      StreamPathPrefix + id,
	}, true
}
