package main

import "fmt"
import "flag"

import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomalloc/lib"
import "github.com/bnclabs/gomalloc/malloc"

var options struct {
	minblock int
	numpools int
}

func argParse() {
	flag.IntVar(&options.minblock, "minblock", 8,
		"block size of the smallest pool")
	flag.IntVar(&options.numpools, "numpools", 10,
		"number of size classes")
	flag.Parse()
}

func main() {
	argParse()
	tellutilization()
}

func tellutilization() {
	setts := lib.Settings{
		"minblock": options.minblock,
		"numpools": options.numpools,
	}
	mp := malloc.NewMultipool("ladder", malloc.NewHeapAllocator(), setts)
	prev := int64(0)
	for i := 0; i < mp.Numpools(); i++ {
		size := mp.Blocksize(i)
		// worst case is the smallest request routed to this pool.
		worst := float64(prev+1) / float64(size)
		fmt.Printf("pool %2v size %8v, worst util %6.2f%%\n",
			i, humanize.IBytes(uint64(size)), worst*100)
		prev = size
	}
	fmt.Printf("total %v size pools, requests beyond %v go upstream\n",
		mp.Numpools(), humanize.IBytes(uint64(mp.Maxpooled())))
	if capacity := malloc.Systemcapacity(); capacity > 0 {
		fmt.Printf("system free memory %v\n", humanize.IBytes(uint64(capacity)))
	}
}
