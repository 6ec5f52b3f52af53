//go:build !no_pprof

package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"fortio.org/log"
)

var (
	cpuProfile = flag.String("profile-cpu", "", "write the cpu profile of the run to `file`")
	memProfile = flag.String("profile-mem", "", "write a heap profile at the end of the run to `file`")
	cpuFile    *os.File
)

func init() {
	hookBefore = startProfiles
	hookAfter = stopProfiles
}

func startProfiles() int {
	if *cpuProfile == "" {
		return 0
	}
	f, err := os.Create(*cpuProfile)
	if err != nil {
		return log.FErrf("can't create cpu profile: %v", err)
	}
	if err = pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return log.FErrf("can't start cpu profile: %v", err)
	}
	cpuFile = f
	log.Infof("Writing cpu profile to %s", *cpuProfile)
	return 0
}

func stopProfiles() int {
	if cpuFile != nil {
		pprof.StopCPUProfile()
		cpuFile.Close()
		cpuFile = nil
	}
	if *memProfile == "" {
		return 0
	}
	f, err := os.Create(*memProfile)
	if err != nil {
		return log.FErrf("can't create heap profile: %v", err)
	}
	defer f.Close()
	if err = pprof.WriteHeapProfile(f); err != nil {
		return log.FErrf("can't write heap profile: %v", err)
	}
	log.Infof("Wrote heap profile to %s", *memProfile)
	return 0
}
