package dynlib

import (
	"bufio"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ZenLiuCN/fn"
)

// Inspect lists the functions and data objects an ELF shared library exports,
// sorted and without version suffixes.
func Inspect(file string) (v []string, err error) {
	var f *elf.File
	if f, err = elf.Open(file); err != nil {
		return
	}
	defer fn.IgnoreClose(f)
	var syms []elf.Symbol
	if syms, err = f.DynamicSymbols(); err != nil {
		return nil, fmt.Errorf("dynlib: inspect %s: %w", file, err)
	}
	seen := make(map[string]struct{}, len(syms))
	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF || s.Name == "" {
			continue
		}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT, elf.STT_GNU_IFUNC:
		default:
			continue
		}
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK:
		default:
			continue
		}
		seen[s.Name] = struct{}{}
	}
	v = fn.MapKeys(seen)
	slices.Sort(v)
	return
}

// Missing reports which entries of m an ELF shared library does not export,
// without loading it.
func Missing(file string, m Manifest) (required, optional []string, err error) {
	var exported []string
	if exported, err = Inspect(file); err != nil {
		return
	}
	for _, e := range m {
		if _, ok := slices.BinarySearch(exported, e.Name); ok {
			continue
		}
		if e.Optional {
			optional = append(optional, e.Name)
		} else {
			required = append(required, e.Name)
		}
	}
	return
}

// ParseManifest reads a manifest in text form: one symbol per line, a leading
// '?' marks it optional, '#' starts a comment, blank lines are ignored.
func ParseManifest(r io.Reader) (m Manifest, err error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := sc.Text()
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		e := Entry{Name: s}
		if s[0] == '?' {
			e.Name = strings.TrimSpace(s[1:])
			e.Optional = true
		}
		if e.Name == "" || strings.ContainsAny(e.Name, " \t") {
			return nil, fmt.Errorf("dynlib: manifest line %d: invalid symbol %q", line, s)
		}
		m = append(m, e)
	}
	err = sc.Err()
	return
}

// ReadManifest parses the manifest file at path.
func ReadManifest(path string) (m Manifest, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return
	}
	defer fn.IgnoreClose(f)
	return ParseManifest(f)
}
