// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

// promptLine reads one line, returning def when the input is empty.
func promptLine(label, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "reading input")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// promptYesNo reads a y/n answer, returning def on empty input.
func promptYesNo(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	line, err := promptLine(fmt.Sprintf("%s (%s)", label, hint), "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// promptInt reads an integer, returning def on empty input. Non-numeric
// input is an error, not a re-prompt.
func promptInt(label string, def int) (int, error) {
	line, err := promptLine(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, errors.Errorf("expected a number, got %q", line)
	}
	return n, nil
}

// promptChoice prints a numbered menu and reads a 1-based selection,
// returning the 0-based index.
func promptChoice(label string, options []string) (int, error) {
	say("%s", label)
	for i, opt := range options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	for {
		n, err := promptInt("Choice", 1)
		if err != nil {
			return 0, err
		}
		if n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		warn("enter a number between 1 and %d", len(options))
	}
}

// promptSecret reads a line without echo when stdin is a terminal, falling
// back to a plain read otherwise (pipes, tests).
func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", errors.Wrap(err, "reading secret")
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "reading secret")
	}
	return strings.TrimSpace(line), nil
}
