// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grailbio/base/backgroundcontext"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
	"github.com/grailbio/base/status"
	"github.com/grailbio/tomoslice/pipeline"
	"github.com/grailbio/tomoslice/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Tomoslice partitions chunked datasets into frame batches and runs
processing pipelines over them.

Usage:

	tomoslice <command> [arguments]

The commands are:

	check       validate a run description without executing it
	run         execute a run description
`)
	os.Exit(2)
}

func main() {
	log.AddFlags()
	log.SetFlags(0)
	log.SetPrefix("tomoslice: ")
	must.Func = func(depth int, v ...interface{}) { log.Fatal(v...) }
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	default:
		fmt.Fprintln(os.Stderr, "unknown command", cmd)
		flag.Usage()
	case "check":
		checkCmd(args)
	case "run":
		runCmd(args)
	}
}

func checkCmd(args []string) {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tomoslice check run.yaml")
		os.Exit(2)
	}
	must.Nil(flags.Parse(args))
	if flags.NArg() != 1 {
		flags.Usage()
	}
	p, err := pipeline.Load(flags.Arg(0))
	must.Nil(err, flags.Arg(0))
	must.Nil(pipeline.Validate(p.Stages), flags.Arg(0))
	log.Printf("%s: %d stages, run %016x", flags.Arg(0), len(p.Stages), p.Digest())
}

func runCmd(args []string) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		procs   = flags.Int("procs", 1, "number of worker processes to simulate")
		out     = flags.String("out", "", "output directory for saver stages")
		spill   = flags.String("spill", "", "directory to which intermediates are spilled; in-memory if empty")
		console = flags.Bool("status", false, "display rank progress on the console")
	)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tomoslice run [-procs n] [-out dir] [-spill dir] run.yaml")
		os.Exit(2)
	}
	must.Nil(flags.Parse(args))
	if flags.NArg() != 1 {
		flags.Usage()
	}
	p, err := pipeline.Load(flags.Arg(0))
	must.Nil(err, flags.Arg(0))
	if *procs > 0 {
		p.Procs = *procs
	}
	if *out != "" {
		p.OutPath = *out
	}
	if p.ProcessFile == "" {
		p.ProcessFile = filepath.Base(flags.Arg(0))
	}
	if *spill != "" {
		p.Store = store.NewSpill(store.RunPrefix(*spill, p.Digest()))
	}
	p.Status = new(status.Status)
	if *console {
		var reporter status.Reporter
		go reporter.Go(os.Stdout, p.Status)
	}

	ctx := backgroundcontext.Get()
	must.Nil(pipeline.RunLocal(ctx, p))
	if s, ok := p.Store.(*store.Spill); ok {
		must.Nil(s.Close(), "spilling intermediates")
	}
	log.Printf("run %016x complete", p.Digest())
}
