/*package snapio handles the on-disk layout of lab-frame output. Every
diagnostic gets its own directory containing a text Header and the dumps
written each time its buffer is flushed:

	<root>/Header
	<root>/metadata.json
	<root>/snapshots/snapshot00000/Header
	<root>/snapshots/snapshot00000/fields/buffer00000.lfd
	<root>/snapshots/snapshot00000/particles/<species>/buffer00000.lfd
	<root>/slices/slice00000/...

All paths are relative to a go-billy filesystem, so output can be written to
disk (osfs) or kept in memory (memfs).
*/
package snapio

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// DefaultRoot is the default output directory.
const DefaultRoot = "lab_frame_data"

const dumpExt = ".lfd"

// SnapshotDir returns the directory of full-domain snapshot fileNum.
func SnapshotDir(root string, fileNum int) string {
	return path.Join(root, "snapshots", fmt.Sprintf("snapshot%05d", fileNum))
}

// SliceDir returns the directory of reduced-domain slice fileNum.
func SliceDir(root string, fileNum int) string {
	return path.Join(root, "slices", fmt.Sprintf("slice%05d", fileNum))
}

// FieldDumpName returns the name of the flushNum-th field dump of the
// diagnostic in dir.
func FieldDumpName(dir string, flushNum int) string {
	return path.Join(dir, "fields", fmt.Sprintf("buffer%05d%s", flushNum, dumpExt))
}

// ParticleDumpName returns the name of the flushNum-th dump of a species.
func ParticleDumpName(dir, species string, flushNum int) string {
	return path.Join(dir, "particles", species,
		fmt.Sprintf("buffer%05d%s", flushNum, dumpExt))
}

// CreateDirectories creates a diagnostic's directory along with its field
// directory and one particle directory per species.
func CreateDirectories(fs billy.Filesystem, dir string, species []string) error {
	dirs := []string{path.Join(dir, "fields")}
	for _, s := range species {
		dirs = append(dirs, path.Join(dir, "particles", s))
	}
	for _, d := range dirs {
		if err := fs.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("Could not create the output directory %s: %w",
				d, err)
		}
	}
	return nil
}

// FieldDumps lists the field dumps of the diagnostic in dir in flush order.
func FieldDumps(fs billy.Filesystem, dir string) ([]string, error) {
	return listDumps(fs, path.Join(dir, "fields"))
}

// ParticleDumps lists the dumps of one species in flush order.
func ParticleDumps(fs billy.Filesystem, dir, species string) ([]string, error) {
	return listDumps(fs, path.Join(dir, "particles", species))
}

// Species lists the particle species of the diagnostic in dir.
func Species(fs billy.Filesystem, dir string) ([]string, error) {
	infos, err := readDir(fs, path.Join(dir, "particles"))
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, info := range infos {
		if info.IsDir() {
			out = append(out, info.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func listDumps(fs billy.Filesystem, dir string) ([]string, error) {
	infos, err := readDir(fs, dir)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, info := range infos {
		if !info.IsDir() && strings.HasSuffix(info.Name(), dumpExt) {
			out = append(out, path.Join(dir, info.Name()))
		}
	}
	// Zero-padded names sort in flush order.
	sort.Strings(out)
	return out, nil
}

// readDir treats a missing directory as an empty one.
func readDir(fs billy.Filesystem, dir string) ([]os.FileInfo, error) {
	infos, err := fs.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("Could not list %s: %w", dir, err)
	}
	return infos, nil
}
