// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package traininfo

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// parseConfig reads loosely-structured TOML-like configuration with a
// deliberately minimal parser: section headers are lines wholly enclosed in
// brackets; key/value lines split on the first '='; values lose surrounding
// whitespace and one layer of enclosing quotes; an inline '#' discards the
// tail with one more quote-stripping pass on the remainder. Both the
// section-qualified key and the bare key are stored so lookups need not care
// about section membership.
func parseConfig(r io.Reader) (map[string]string, error) {
	data := make(map[string]string)
	section := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		value := trimQuotes(strings.TrimSpace(line[eq+1:]))
		if idx := strings.IndexByte(value, '#'); idx >= 0 {
			value = trimQuotes(strings.TrimSpace(value[:idx]))
		}
		if section != "" {
			data[section+"."+key] = value
		}
		data[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return data, nil
}

// trimQuotes strips a single layer of matching enclosing quote characters.
func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
