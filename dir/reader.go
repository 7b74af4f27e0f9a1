package dir

import (
	"cmp"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/eak1mov/go-quadtiles/tile"
)

// Reader implements tile.Reader and tile.Visitor interfaces for member files.
// Files are listed once when the Reader is created.
type Reader struct {
	members []tile.Member
	paths   map[int]string
}

// NewReader lists the files matching filePattern (e.g. "/home/user/tiles/{slot}-{name}.bin").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	filePattern = filepath.Clean(filePattern)
	pathRegexp, err := patternRegexp(filePattern)
	if err != nil {
		return nil, err
	}

	r := &Reader{paths: make(map[int]string)}
	err = filepath.WalkDir(rootDir(filePattern), func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		member, ok := parsePath(pathRegexp, filePath)
		if !ok {
			return nil
		}
		r.members = append(r.members, member)
		r.paths[member.Slot] = filePath
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(r.members, func(a, b tile.Member) int {
		return cmp.Compare(a.Slot, b.Slot)
	})
	return r, nil
}

func parsePath(pathRegexp *regexp.Regexp, filePath string) (tile.Member, bool) {
	matches := pathRegexp.FindStringSubmatch(filePath)
	if matches == nil {
		return tile.Member{}, false
	}
	slot, err := strconv.Atoi(matches[pathRegexp.SubexpIndex("slot")])
	if err != nil {
		return tile.Member{}, false
	}
	member := tile.Member{Slot: slot}
	if i := pathRegexp.SubexpIndex("name"); i >= 0 {
		member.Name = matches[i]
	}
	return member, true
}

func (r *Reader) ReadMember(slot int) ([]byte, error) {
	filePath, ok := r.paths[slot]
	if !ok {
		return make([]byte, 0), nil
	}
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VisitMembers visits all members in slot order.
func (r *Reader) VisitMembers(visitor func(tile.Member, []byte) error) error {
	for _, member := range r.members {
		data, err := os.ReadFile(r.paths[member.Slot])
		if err != nil {
			return err
		}
		if err := visitor(member, data); err != nil {
			return err
		}
	}
	return nil
}
