//go:build generate

// generate-keymap regenerates the consumer-page usage table from the
// markdown reference in data/.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hidlink/hidlink/hidapi/keymap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	meta "github.com/yuin/goldmark-meta"
)

type entry struct {
	usage    uint16
	constant string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: generate-keymap <output file>")
		os.Exit(1)
	}
	entries, err := parseConsumerTable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeTable(os.Args[1], entries); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseConsumerTable() ([]entry, error) {
	src, err := keymap.FS.ReadFile("data/consumer-usages.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table, meta.Meta))
	pctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(pctx))
	if page, _ := meta.Get(pctx)["page"].(string); page != "0x0C" {
		return nil, fmt.Errorf("unexpected usage page in front matter: %q", page)
	}

	var entries []entry
	var walkErr error
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		row, ok := n.(*east.TableRow)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var cells []string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(string(c.Text(src))))
		}
		if len(cells) != 3 {
			walkErr = fmt.Errorf("table row has %d cells, want 3: %v", len(cells), cells)
			return ast.WalkStop, nil
		}
		usage, err := strconv.ParseUint(strings.TrimPrefix(cells[0], "0x"), 16, 16)
		if err != nil {
			walkErr = fmt.Errorf("bad usage %q: %w", cells[0], err)
			return ast.WalkStop, nil
		}
		if _, ok := keymap.KeyCode(cells[1]); !ok {
			walkErr = fmt.Errorf("unknown evdev key %q", cells[1])
			return ast.WalkStop, nil
		}
		entries = append(entries, entry{usage: uint16(usage), constant: cells[2]})
		return ast.WalkContinue, nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].usage < entries[j].usage })
	return entries, nil
}

func writeTable(path string, entries []entry) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("// Code generated by generate-keymap. DO NOT EDIT.\n\n")
	buf.WriteString("package keymap\n\n")
	buf.WriteString("// consumerUsages maps Consumer page (0x0C) usages to evdev keycodes.\n")
	buf.WriteString("// Source: data/consumer-usages.md\n")
	buf.WriteString("var consumerUsages = map[uint16]uint16{\n")
	for _, e := range entries {
		fmt.Fprintf(buf, "\t0x%04X: %s,\n", e.usage, e.constant)
	}
	buf.WriteString("}\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
