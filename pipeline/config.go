// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice"
	"gopkg.in/yaml.v3"
)

// stageConfig is the YAML shape of a single stage entry. Roles are
// "loader", "process" (the default), and "saver".
type stageConfig struct {
	ID        string             `yaml:"id"`
	Role      string             `yaml:"role"`
	Path      string             `yaml:"path"`
	Dataset   string             `yaml:"dataset"`
	Shape     []int              `yaml:"shape"`
	Core      []int              `yaml:"core"`
	Fixed     map[int]int        `yaml:"fixed"`
	Padding   map[int]int        `yaml:"padding"`
	MaxFrames int                `yaml:"max_frames"`
	Transform string             `yaml:"transform"`
	Params    map[string]float64 `yaml:"params"`
}

type runConfig struct {
	Procs       int           `yaml:"procs"`
	OutPath     string        `yaml:"out_path"`
	ProcessFile string        `yaml:"process_file"`
	Stages      []stageConfig `yaml:"stages"`
}

// Load reads a YAML run description and returns the pipeline it
// declares. The returned pipeline is parsed but not yet validated;
// RunLocal validates before executing.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a pipeline from YAML run description bytes.
func Parse(data []byte) (*Pipeline, error) {
	var c runConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.E(errors.Invalid, "pipeline: malformed run description", err)
	}
	p := &Pipeline{
		Procs:       c.Procs,
		OutPath:     c.OutPath,
		ProcessFile: c.ProcessFile,
	}
	if p.Procs == 0 {
		p.Procs = 1
	}
	for i, sc := range c.Stages {
		stage, err := sc.stage()
		if err != nil {
			return nil, errors.E(fmt.Sprintf("pipeline: stage %d %s", i, sc.ID), err)
		}
		p.Stages = append(p.Stages, stage)
	}
	return p, nil
}

func (sc stageConfig) stage() (Stage, error) {
	s := Stage{
		ID:        sc.ID,
		Path:      sc.Path,
		Dataset:   sc.Dataset,
		Shape:     sc.Shape,
		Core:      sc.Core,
		MaxFrames: sc.MaxFrames,
	}
	if s.ID == "" {
		return Stage{}, errors.E(errors.Invalid, "missing stage id")
	}
	switch sc.Role {
	case "loader":
		s.Role = RoleLoader
	case "saver":
		s.Role = RoleSaver
	case "", "process":
		s.Role = RoleProcess
	default:
		return Stage{}, errors.E(errors.Invalid, fmt.Sprintf("unknown role %q", sc.Role))
	}
	// Fixed dimensions sort ascending so that every parse of the same
	// description yields the same stage plan.
	for dim := range sc.Fixed {
		s.Fixed = append(s.Fixed, dim)
	}
	sort.Ints(s.Fixed)
	for _, dim := range s.Fixed {
		s.FixedValues = append(s.FixedValues, sc.Fixed[dim])
	}
	if len(sc.Padding) > 0 {
		s.Padding = make(tomoslice.PadSpec, len(sc.Padding))
		for dim, width := range sc.Padding {
			s.Padding[dim] = width
		}
	}
	if s.Role == RoleProcess {
		name := sc.Transform
		if name == "" {
			name = "identity"
		}
		transform, err := NewTransform(name, sc.Params)
		if err != nil {
			return Stage{}, err
		}
		s.Transform = transform
	}
	return s, nil
}
