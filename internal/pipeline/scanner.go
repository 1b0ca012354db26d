package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/graynorm/internal/encoder"
)

// Source is one image file found under the input directory.
type Source struct {
	AbsPath string
	RelPath string // slash-separated, relative to the input directory
	Key     string // RelPath minus extension, unique within a scan
	Format  string // canonical decoder name: png, jpeg, gif, bmp, tiff, webp
	Size    int64
}

// decodable lists the extensions imageio can read.
var decodable = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ScanImages returns every decodable file below inputDir, ordered by
// relative path. Hidden directories and skipDir (typically the output
// directory) are not entered.
func ScanImages(inputDir, skipDir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == inputDir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || path == skipDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !decodable[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		sources = append(sources, Source{
			AbsPath: path,
			RelPath: rel,
			Key:     strings.TrimSuffix(rel, filepath.Ext(rel)),
			Format:  encoder.NormalizeFormat(ext),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	disambiguate(sources)
	return sources, nil
}

// disambiguate suffixes the format to keys shared by several files, so
// photo.png and photo.jpg become photo-png and photo-jpeg. A suffixed key
// that still clashes (photo-png.png exists too) gets -2, -3, ... appended.
func disambiguate(sources []Source) {
	count := make(map[string]int, len(sources))
	for _, s := range sources {
		count[s.Key]++
	}
	for i := range sources {
		if count[sources[i].Key] > 1 {
			sources[i].Key += "-" + sources[i].Format
		}
	}

	taken := make(map[string]bool, len(sources))
	for i := range sources {
		key := sources[i].Key
		for n := 2; taken[key]; n++ {
			key = fmt.Sprintf("%s-%d", sources[i].Key, n)
		}
		taken[key] = true
		sources[i].Key = key
	}
}
