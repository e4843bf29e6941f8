// Package wordlist reads newline-separated candidate lists (usernames,
// targets) from an afero filesystem.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// ErrEmpty is returned when a list holds no usable entries.
var ErrEmpty = errors.New("list is empty")

// Load reads path and returns every whitespace-separated token, in file
// order. A token starting with '#' is kept: it may well be a username.
func Load(fs afero.Fs, path string) ([]string, error) {
	return load(fs, path, Parse)
}

// LoadCommented is Load for hand-maintained lists such as target files,
// where lines starting with '#' are comments.
func LoadCommented(fs afero.Fs, path string) ([]string, error) {
	return load(fs, path, ParseCommented)
}

func load(fs afero.Fs, path string, parse func(io.Reader) ([]string, error)) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return entries, nil
}

// Parse is Load without the filesystem.
func Parse(r io.Reader) ([]string, error) {
	return parse(r, false)
}

// ParseCommented is LoadCommented without the filesystem.
func ParseCommented(r io.Reader) ([]string, error) {
	return parse(r, true)
}

func parse(r io.Reader, skipComments bool) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if skipComments && strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, strings.Fields(line)...)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
