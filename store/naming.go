// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/file"
	"github.com/spaolacci/murmur3"
)

// Output files and groups are named deterministically from stage
// position and plugin identity alone, so every rank derives the same
// names without coordination. The names must be agreed before any
// rank creates a file; the pipeline layer interposes a barrier.

// OutputFile returns the filename for the dataset key produced by
// the stage at position stage running the named plugin:
// <base(processFile)><NN>_<pluginID>_<key>.h5 under outPath.
func OutputFile(outPath, processFile string, stage int, pluginID, key string) string {
	name := fmt.Sprintf("%s%02d_%s_%s.h5", filepath.Base(processFile), stage, pluginID, key)
	return filepath.Join(outPath, name)
}

// GroupName returns the group under which the stage at position
// stage stores its outputs.
func GroupName(stage int, plugin string) string {
	return fmt.Sprintf("%d-%s", stage, plugin)
}

// RunDigest returns a stable digest of a pipeline's stage
// identifiers, used to key per-run spill prefixes so that distinct
// pipelines never collide under a shared scratch directory.
func RunDigest(ids []string) uint64 {
	h := murmur3.New64()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// RunPrefix returns the spill prefix for the run with the given
// digest under a shared scratch directory. Dataset names repeat
// across runs, so every run spills under its own digest-keyed
// prefix.
func RunPrefix(scratch string, digest uint64) string {
	return file.Join(scratch, fmt.Sprintf("%016x", digest))
}
