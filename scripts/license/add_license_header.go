// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// add_license_header.go: adds or checks the license headers of source files.
// Usage: go run ./scripts/license -dir . [-check]

package main

import (
	"bufio"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

//go:embed license_header.txt
var licenseHeader string

// commentPrefixes maps file extensions (starting with a dot) and file names
// to the line comment prefix used for the header.
var commentPrefixes = map[string]string{
	".go":    "//",
	".yml":   "#",
	".yaml":  "#",
	"go.mod": "//",
}

// ignored lists path fragments of files never touched.
var ignored = []string{
	"/_examples/",
	"/testdata/",
	"_mocks.go",
}

var errHeaderCheckFailed = errors.New("some files do not have the correct license header or have double headers")

func main() {
	checkOnly := flag.Bool("check", false, "only verify headers, do not modify files")
	dir := flag.String("dir", "", "root directory of the files to process (required)")
	flag.Parse()

	if *dir == "" {
		log.Fatal("Please provide a directory to look for files, use -dir")
	}
	if _, err := os.Stat(*dir); err != nil {
		log.Fatalf("Invalid target directory %q: %v", *dir, err)
	}
	if err := run(*dir, *checkOnly, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run processes all matching files below dir. In check mode, all files are
// inspected and a summary error is returned if any of them is invalid.
// Otherwise, missing or outdated headers are fixed.
func run(dir string, checkOnly bool, out io.Writer) error {
	files, err := collectFiles(dir)
	if err != nil {
		return err
	}
	anyFails := false
	for _, file := range files {
		header := withPrefix(licenseHeader, file.prefix)
		if err := processFile(file.path, header, checkOnly); err != nil {
			if !checkOnly {
				return err
			}
			fmt.Fprintln(out, err)
			anyFails = true
		}
		if checkOnly {
			if err := checkDoubleHeader(file.path, file.prefix); err != nil {
				fmt.Fprintln(out, err)
				anyFails = true
			}
		}
	}
	if anyFails {
		return errHeaderCheckFailed
	}
	fmt.Fprintf(out, "Processed %d files in %s\n", len(files), dir)
	return nil
}

type sourceFile struct {
	path   string
	prefix string
}

func collectFiles(dir string) ([]sourceFile, error) {
	var res []sourceFile
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || isIgnored(path) {
			return nil
		}
		if prefix, found := commentPrefixOf(path); found {
			res = append(res, sourceFile{path: path, prefix: prefix})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	return res, nil
}

func isIgnored(path string) bool {
	path = "/" + filepath.ToSlash(path)
	for _, fragment := range ignored {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

func commentPrefixOf(path string) (string, bool) {
	if prefix, found := commentPrefixes[filepath.Base(path)]; found {
		return prefix, true
	}
	prefix, found := commentPrefixes[filepath.Ext(path)]
	return prefix, found && filepath.Ext(path) != ""
}

// processFile verifies that the given file starts with the given header. If
// not and checkOnly is false, an outdated header is replaced or a missing
// header is added.
func processFile(path, header string, checkOnly bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(content)
	if strings.HasPrefix(text, "// Code generated") || strings.HasPrefix(text, header) {
		return nil
	}
	if checkOnly {
		return fmt.Errorf("missing or incorrect license header: %s", path)
	}

	lines := strings.Split(text, "\n")
	if strings.Contains(lines[0], "Sonic Operations Ltd") {
		// an outdated header ends at the first empty line
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				text = strings.Join(lines[i+1:], "\n")
				break
			}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(header+"\n"+text), info.Mode().Perm())
}

func checkDoubleHeader(path, prefix string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	lines := strings.Split(string(content), "\n")
	if !strings.Contains(lines[0], "Copyright") {
		return nil
	}
	for i, line := range lines[1:] {
		if strings.HasPrefix(line, prefix+" Copyright") {
			return fmt.Errorf("double license header found in %s at line %d", path, i+2)
		}
	}
	return nil
}

func withPrefix(text, prefix string) string {
	var res strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		if line := scanner.Text(); line == "" {
			res.WriteString(prefix + "\n")
		} else {
			res.WriteString(prefix + " " + line + "\n")
		}
	}
	return res.String()
}
