package main

import "fmt"
import "flag"
import "os"
import "time"
import "syscall"
import "os/signal"

import "github.com/BurntSushi/toml"
import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomalloc/lib"
import "github.com/bnclabs/gomalloc/log"
import "github.com/bnclabs/gomalloc/malloc"

var options struct {
	config   string
	workers  int
	n        int
	maxsize  int
	hold     int
	capacity int64
	http     string
	loglevel string
	logcomps string
}

func argParse() {
	flag.StringVar(&options.config, "config", "",
		"toml file with multipool settings")
	flag.IntVar(&options.workers, "workers", 8,
		"number of concurrent workers")
	flag.IntVar(&options.n, "n", 1000000,
		"total number of allocations")
	flag.IntVar(&options.maxsize, "maxsize", 8192,
		"allocate sizes between [1, maxsize]")
	flag.IntVar(&options.hold, "hold", 64,
		"blocks held by a worker before freeing them")
	flag.Int64Var(&options.capacity, "capacity", -1,
		"byte limit, 0 unlimited, -1 half of free system memory")
	flag.StringVar(&options.http, "http", "",
		"serve statistics on this address, like localhost:6060")
	flag.StringVar(&options.loglevel, "log", "info",
		"log level")
	flag.StringVar(&options.logcomps, "logcomponents", "all",
		"comma separated list of components to log")
	flag.Parse()
}

func main() {
	argParse()
	log.SetLogger(nil, map[string]interface{}{
		"log.level": options.loglevel, "log.file": "",
	})
	malloc.LogComponents(lib.Parsecsv(options.logcomps)...)

	setts, err := loadsettings(options.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmsg := "minblock %v numpools %v growth %v capacity %v\n"
	log.Infof(fmsg, setts["minblock"], setts["numpools"], setts["growth"],
		humanize.Bytes(setts.Uint64("capacity")))

	cmp := malloc.NewConcurrentMultipool("mpool", malloc.NewHeapAllocator(), setts)
	ld := newload(cmp, options.workers, options.n, options.maxsize, options.hold)

	var errch chan error
	if options.http != "" {
		errch = servestats(options.http, ld)
	}

	now := time.Now()
	if err := ld.run(); err != nil {
		cmp.Release()
		log.Errorf("load: %v\n", err)
		os.Exit(1)
	}
	log.Infof("took %v for %v allocations\n", time.Since(now), options.n)
	latency, _ := ld.histograms()
	log.Infof("latency in ns %v\n", latency.Logstring())
	cmp.Log()
	fmt.Println(lib.Prettystats(ld.stats(), true))

	if errch == nil {
		cmp.Release()
		return
	}
	log.Infof("stats available till interrupted\n")
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	if err := serveuntil(cmp, errch, sigch); err != nil {
		log.Errorf("http: %v\n", err)
		os.Exit(1)
	}
}

// serveuntil block till the stats server fails or a signal is received,
// multipool is released either way.
func serveuntil(
	cmp *malloc.ConcurrentMultipool, errch chan error, sigch chan os.Signal) error {

	defer cmp.Release()
	select {
	case err := <-errch:
		return err
	case sig := <-sigch:
		log.Infof("received %v\n", sig)
	}
	return nil
}

// loadsettings from toml file over default settings.
func loadsettings(filename string) (lib.Settings, error) {
	setts := malloc.Defaultsettings()
	if filename != "" {
		m := map[string]interface{}{}
		if _, err := toml.DecodeFile(filename, &m); err != nil {
			return nil, err
		}
		setts = setts.Mixin(m)
	}
	switch {
	case options.capacity > 0:
		setts["capacity"] = options.capacity
	case options.capacity < 0 && setts.Int64("capacity") == 0:
		setts["capacity"] = malloc.Systemcapacity() / 2
	}
	return setts, nil
}
