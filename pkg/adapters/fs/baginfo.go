package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aretw0/bagger/pkg/core"
)

// writeBagIt writes the bag declaration.
func writeBagIt(root string) error {
	decl := fmt.Sprintf("BagIt-Version: %s\nTag-File-Character-Encoding: UTF-8\n", BagItVersion)
	if _, err := writeFileAtomic(filepath.Join(root, BagItFile), strings.NewReader(decl), 0o644); err != nil {
		return core.IOError("write", BagItFile, err)
	}
	return nil
}

// encodeBagInfo renders fields sorted by name; repeated names keep their
// insertion order. Line breaks inside values are folded with an indent.
func encodeBagInfo(fields *core.Fields) []byte {
	var buf bytes.Buffer
	for _, name := range fields.Names() {
		for _, v := range fields.Get(name) {
			v = strings.ReplaceAll(strings.TrimSpace(v), "\r\n", "\n")
			v = strings.ReplaceAll(v, "\n", "\n  ")
			fmt.Fprintf(&buf, "%s: %s\n", name, v)
		}
	}
	return buf.Bytes()
}

func writeBagInfo(root string, fields *core.Fields) error {
	if _, err := writeFileAtomic(filepath.Join(root, BagInfoFile), bytes.NewReader(encodeBagInfo(fields)), 0o644); err != nil {
		return core.IOError("write", BagInfoFile, err)
	}
	return nil
}

// ReadBagInfo parses bag-info.txt, unfolding continuation lines.
func ReadBagInfo(r io.Reader) (*core.Fields, error) {
	fields := core.NewFields()
	sc := bufio.NewScanner(r)

	var name, value string
	flush := func() {
		if name != "" {
			fields.Add(name, value)
		}
		name, value = "", ""
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if name == "" {
				return nil, fmt.Errorf("continuation line without a field: %q", line)
			}
			value += "\n" + strings.TrimSpace(line)
			continue
		}
		flush()
		n, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed bag-info line: %q", line)
		}
		name, value = strings.TrimSpace(n), strings.TrimSpace(v)
	}
	flush()
	return fields, sc.Err()
}
