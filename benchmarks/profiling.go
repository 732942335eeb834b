package benchmarks

import (
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"github.com/zeu5/rl-route-finder/log"
)

// startProfiling starts the cpu profile when the flag is set,
// the returned function stops it and writes the memory profile
func startProfiling() func() {
	stops := make([]func(), 0)
	if cpuprofile != "" || memprofile != "" {
		if err := os.MkdirAll(cfg.RecordPath, 0777); err != nil {
			log.With(log.LogParams{"error": err, "path": cfg.RecordPath}).Warn("could not create the record folder")
		}
	}
	if cpuprofile != "" {
		cpuProfPath := path.Join(cfg.RecordPath, cpuprofile)
		log.With(log.LogParams{"path": cpuProfPath}).Info("profiling cpu")
		f, err := os.Create(cpuProfPath)
		if err != nil {
			log.With(log.LogParams{"error": err}).Error("could not create CPU profile")
		} else if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			log.With(log.LogParams{"error": err}).Error("could not start CPU profile")
		} else {
			stops = append(stops, func() {
				pprof.StopCPUProfile()
				f.Close()
			})
		}
	}

	if memprofile != "" {
		stops = append(stops, func() {
			memProfPath := path.Join(cfg.RecordPath, memprofile)
			log.With(log.LogParams{"path": memProfPath}).Info("profiling memory")
			f, err := os.Create(memProfPath)
			if err != nil {
				log.With(log.LogParams{"error": err}).Error("could not create memory profile")
				return
			}
			defer f.Close()
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.With(log.LogParams{"error": err}).Error("could not write memory profile")
			}
		})
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
