// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cleanup tracks temporary paths that must be removed at process
// exit regardless of exit path.
package cleanup

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Registry tracks paths pending removal. Teardown is idempotent: every
// removal is guarded by an existence check, so running it from both the
// normal-exit path and an interrupt handler is safe.
type Registry struct {
	mu    sync.Mutex
	paths []string
}

// Register adds path to the pending-removal list.
func (r *Registry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return
		}
	}
	r.paths = append(r.paths, path)
}

// Unregister drops path from the list, e.g. once an upload succeeded and the
// local clone should survive.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.paths {
		if p == path {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			return
		}
	}
}

// Run removes every registered path that still exists.
func (r *Registry) Run() {
	r.mu.Lock()
	paths := append([]string(nil), r.paths...)
	r.mu.Unlock()
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			log.Printf("cleanup of %s failed: %v", p, err)
			continue
		}
		log.Printf("cleaned up %s", p)
	}
}

// Default is the process-wide registry.
var Default = &Registry{}

// Register adds path to the process-wide registry.
func Register(path string) { Default.Register(path) }

// Unregister drops path from the process-wide registry.
func Unregister(path string) { Default.Unregister(path) }

// Run tears down the process-wide registry.
func Run() { Default.Run() }

var hookOnce sync.Once

// HookInterrupt installs a handler that runs the process-wide teardown and
// exits non-zero on SIGINT or SIGTERM.
func HookInterrupt() {
	hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			log.Println("interrupted, cleaning up")
			Default.Run()
			os.Exit(1)
		}()
	})
}
