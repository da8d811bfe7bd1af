// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package traininfo extracts a fixed allow-list of training parameters from
// loosely-structured configuration files near a run directory and renders
// them as a human-readable summary bundled alongside uploaded artifacts.
package traininfo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// configExt is the recognized configuration-file extension.
const configExt = ".toml"

// parentLevels is how many successive parents of the run directory join the
// search locations.
const parentLevels = 3

// fallbackDirs are well-known absolute locations always checked last.
// Variable so tests can point them elsewhere.
var fallbackDirs = []string{
	"/workspace",
	"/workspace/diffusion_pipe_working_folder",
}

// allowedKeys is the fixed set of configuration parameter names the
// aggregator is permitted to extract.
var allowedKeys = []string{
	// Network settings
	"network_dim", "network_alpha", "rank", "alpha",
	"network_module", "network_type",
	// Training settings
	"learning_rate", "lr", "unet_lr", "text_encoder_lr",
	"max_train_epochs", "max_train_steps", "epochs",
	"train_batch_size", "batch_size",
	"resolution", "width", "height",
	"optimizer_type", "optimizer",
	"lr_scheduler", "scheduler",
	"seed",
	// Model info
	"pretrained_model_name_or_path", "model_path", "base_model",
	"output_dir", "output_name",
	// Dataset
	"train_data_dir", "dataset_config",
	"caption_extension",
	// Other
	"mixed_precision", "gradient_checkpointing",
	"save_every_n_epochs", "save_model_as",
}

// category groups allow-list keys for rendering. Order is fixed.
type category struct {
	Name string
	Keys []string
}

var categories = []category{
	{"Network Settings", []string{"network_dim", "network_alpha", "rank", "alpha", "network_module", "network_type"}},
	{"Training Settings", []string{"learning_rate", "lr", "unet_lr", "text_encoder_lr", "max_train_epochs", "max_train_steps", "epochs", "train_batch_size", "batch_size", "seed"}},
	{"Resolution", []string{"resolution", "width", "height"}},
	{"Optimizer & Scheduler", []string{"optimizer_type", "optimizer", "lr_scheduler", "scheduler"}},
	{"Model", []string{"pretrained_model_name_or_path", "model_path", "base_model", "output_dir", "output_name"}},
	{"Dataset", []string{"train_data_dir", "dataset_config", "caption_extension"}},
	{"Other", []string{"mixed_precision", "gradient_checkpointing", "save_every_n_epochs", "save_model_as"}},
}

// Record is a flat mapping from allow-list key to the first value discovered
// for it, plus the ordered basenames of the files it was extracted from.
type Record struct {
	values  map[string]string
	Sources []string
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Get returns the value stored for key.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of retained keys.
func (r *Record) Len() int { return len(r.values) }

// setIfAbsent stores value under key only when the key has no value yet.
// The first source to supply a key wins; later discoveries are discarded.
func (r *Record) setIfAbsent(key, value string) bool {
	if _, exists := r.values[key]; exists {
		return false
	}
	r.values[key] = value
	return true
}

// Collect searches the run directory, its nearest parents, and the well-known
// fallback locations for configuration files and aggregates the allow-listed
// keys under a first-source-wins policy. Files that cannot be read or parsed
// contribute no keys; aggregation continues past them.
func Collect(runDir string) *Record {
	rec := NewRecord()
	for _, path := range discoverFiles(runDir) {
		rec.Sources = append(rec.Sources, filepath.Base(path))
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		parsed, err := parseConfig(f)
		f.Close()
		if err != nil {
			continue
		}
		for _, key := range allowedKeys {
			if v, ok := parsed[key]; ok {
				rec.setIfAbsent(key, v)
			}
		}
	}
	return rec
}

// discoverFiles lists the candidate configuration files in discovery order,
// deduplicated by absolute path. Unreadable locations are skipped.
func discoverFiles(runDir string) []string {
	locations := []string{runDir}
	parent := filepath.Dir(runDir)
	for i := 0; i < parentLevels; i++ {
		if parent == "" || parent == locations[len(locations)-1] {
			break
		}
		locations = append(locations, parent)
		parent = filepath.Dir(parent)
	}
	locations = append(locations, fallbackDirs...)
	locations = append(locations, filepath.Join(runDir, ".."))

	var files []string
	seen := make(map[string]bool)
	for _, loc := range locations {
		entries, err := os.ReadDir(loc)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), configExt) {
				continue
			}
			full := filepath.Join(loc, e.Name())
			if abs, err := filepath.Abs(full); err == nil {
				full = abs
			}
			if !seen[full] {
				seen[full] = true
				files = append(files, full)
			}
		}
	}
	return files
}

// Render writes the record grouped into its fixed categories, omitting empty
// ones, followed by the contributing source filenames and a generation
// timestamp.
func (r *Record) Render(w io.Writer, now time.Time) error {
	rule := strings.Repeat("=", 50)
	if _, err := fmt.Fprintf(w, "%s\n  LoRA Training Information\n%s\n\n", rule, rule); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, cat := range categories {
		var lines []string
		for _, key := range cat.Keys {
			if v, ok := r.values[key]; ok {
				lines = append(lines, fmt.Sprintf("  %s = %s\n", key, v))
			}
		}
		if len(lines) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", cat.Name); err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := io.WriteString(w, l); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if len(r.Sources) > 0 {
		if _, err := fmt.Fprintf(w, "[Source]\n  Parsed from: %s\n  Date: %s\n",
			strings.Join(r.Sources, ", "), now.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile renders the record to path. An empty record is reported as an
// error rather than producing an empty summary.
func (r *Record) WriteFile(path string) error {
	if r.Len() == 0 {
		return errors.New("no training info collected")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := r.Render(f, time.Now()); err != nil {
		f.Close()
		return errors.Wrap(err, "rendering training info")
	}
	return f.Close()
}
