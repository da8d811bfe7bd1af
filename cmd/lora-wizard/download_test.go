// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/lora-wizard/pkg/locate"
)

func TestFilterCheckpoints(t *testing.T) {
	in := []string{
		"epoch10.safetensors",
		"README.md",
		"training_info.txt",
		"final.SAFETENSORS",
		".gitattributes",
	}
	want := []string{"epoch10.safetensors", "final.SAFETENSORS"}
	if diff := cmp.Diff(want, filterCheckpoints(in)); diff != "" {
		t.Errorf("filterCheckpoints diff (-want +got):\n%s", diff)
	}
}

func TestSortCheckpoints(t *testing.T) {
	in := []string{
		"epoch100.safetensors",
		"backup.safetensors",
		"epoch9.safetensors",
		"final.safetensors",
		"epoch20.safetensors",
	}
	want := []string{
		"final.safetensors",
		"epoch9.safetensors",
		"epoch20.safetensors",
		"epoch100.safetensors",
		"backup.safetensors",
	}
	sortCheckpoints(in)
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("sortCheckpoints diff (-want +got):\n%s", diff)
	}
}

func TestEpochBounds(t *testing.T) {
	for _, tc := range []struct {
		name             string
		checkpoints      []string
		wantMin, wantMax int
		wantOK           bool
	}{
		{
			name:        "final artifact ignored for bounds",
			checkpoints: []string{"final.safetensors", "epoch5.safetensors", "epoch120.safetensors"},
			wantMin:     5,
			wantMax:     120,
			wantOK:      true,
		},
		{
			name:        "single epoch",
			checkpoints: []string{"epoch40.safetensors"},
			wantMin:     40,
			wantMax:     40,
			wantOK:      true,
		},
		{
			name:        "no numbered checkpoints",
			checkpoints: []string{"final.safetensors", "backup.safetensors"},
			wantOK:      false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gotMin, gotMax, ok := epochBounds(tc.checkpoints)
			if gotMin != tc.wantMin || gotMax != tc.wantMax || ok != tc.wantOK {
				t.Errorf("epochBounds() = (%d, %d, %v), want (%d, %d, %v)",
					gotMin, gotMax, ok, tc.wantMin, tc.wantMax, tc.wantOK)
			}
		})
	}
}

func TestDownloadRangeDefaultsFollowClampPolicy(t *testing.T) {
	checkpoints := []string{"epoch5.safetensors", "epoch120.safetensors", "final.safetensors"}
	minEpoch, maxEpoch, ok := epochBounds(checkpoints)
	if !ok {
		t.Fatal("epochBounds() found no epochs")
	}
	from, to := locate.DefaultRange(minEpoch, maxEpoch)
	if from != 10 || to != 120 {
		t.Errorf("DefaultRange(%d, %d) = (%d, %d), want (10, 120)", minEpoch, maxEpoch, from, to)
	}
}
