package malloc

import "fmt"

import "github.com/cloudfoundry/gosigar"

import "github.com/bnclabs/gomalloc/lib"

// Alignment block sizes of every pool should be multiples of Alignment,
// and memory supplied by upstream allocators shall be aligned to it.
const Alignment = int64(8)

// Maxpools maximum number of size classes in a multipool.
const Maxpools = 32

// Maxalignment upper limit on the natural alignment guaranteed by
// HeapAllocator and MallocAllocator.
const Maxalignment = int64(4096)

// Maxchunkblocks upper limit on "maxchunk" setting, number of blocks
// in a single chunk.
const Maxchunkblocks = int64(1) << 24

const (
	growthGeometric = "geometric"
	growthConstant  = "constant"
)

// Defaultsettings for pools and multipools:
//
//   - "minblock" (int64, default: 8), block size of the smallest pool,
//     must be a multiple of Alignment. Pool i supplies blocks of
//     minblock << i bytes.
//   - "numpools" (int64, default: 10), number of size classes, between
//     1 and Maxpools.
//   - "growth" (string, default: "geometric"), chunk growth strategy,
//     "geometric" or "constant". Geometric chunks hold 1, f, f^2 ...
//     blocks, constant chunks always hold "maxchunk" blocks.
//   - "growthfactor" (int64, default: 2), factor f for geometric growth.
//   - "maxchunk" (int64, default: 32), maximum number of blocks in a
//     single chunk.
//   - "capacity" (int64, default: 0), if greater than zero, bytes
//     obtained from upstream are limited to capacity, beyond which
//     allocations fail with api.ErrorOutofMemory.
//
// Growth settings can be overridden for pool i of a multipool with
// "pool<i>.growth", "pool<i>.growthfactor" and "pool<i>.maxchunk",
// for example "pool0.maxchunk".
func Defaultsettings() lib.Settings {
	return lib.Settings{
		"minblock":     Alignment,
		"numpools":     int64(10),
		"growth":       growthGeometric,
		"growthfactor": int64(2),
		"maxchunk":     int64(32),
		"capacity":     int64(0),
	}
}

// Systemcapacity return free memory available in the system, can be
// used as "capacity" setting.
func Systemcapacity() int64 {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0
	}
	return int64(mem.ActualFree)
}

// growthpolicy parsed from settings, one for every pool.
type growthpolicy struct {
	strategy string
	factor   int64
	maxchunk int64
}

func newgrowthpolicy(setts lib.Settings) growthpolicy {
	gp := growthpolicy{
		strategy: setts.String("growth"),
		factor:   setts.Int64("growthfactor"),
		maxchunk: setts.Int64("maxchunk"),
	}
	switch gp.strategy {
	case growthGeometric, growthConstant:
	default:
		panicerr("unknown growth strategy %q", gp.strategy)
	}
	if gp.factor < 2 {
		panicerr("growthfactor %v must be >= 2", gp.factor)
	} else if gp.maxchunk < 1 || gp.maxchunk > Maxchunkblocks {
		panicerr("maxchunk %v must be in [1, %v]", gp.maxchunk, Maxchunkblocks)
	}
	return gp
}

// first number of blocks in the first chunk of a pool.
func (gp growthpolicy) first() int64 {
	if gp.strategy == growthConstant {
		return gp.maxchunk
	}
	return 1
}

// next number of blocks for the chunk after one holding `n` blocks.
func (gp growthpolicy) next(n int64) int64 {
	if gp.strategy == growthConstant || n >= gp.maxchunk {
		return gp.maxchunk
	}
	if n = n * gp.factor; n > gp.maxchunk {
		return gp.maxchunk
	}
	return n
}

// multipool settings after validation.
type mpoolconfig struct {
	minblock int64
	numpools int
	capacity int64
	growths  []growthpolicy // indexed by pool
}

func newmpoolconfig(setts lib.Settings) mpoolconfig {
	setts = Defaultsettings().Mixin(setts)
	config := mpoolconfig{
		minblock: setts.Int64("minblock"),
		numpools: int(setts.Int64("numpools")),
		capacity: setts.Int64("capacity"),
	}
	if config.minblock <= 0 || (config.minblock%Alignment) != 0 {
		fmsg := "minblock %v is not a positive multiple of %v"
		panicerr(fmsg, config.minblock, Alignment)
	} else if config.numpools < 1 || config.numpools > Maxpools {
		panicerr("numpools %v must be in [1, %v]", config.numpools, Maxpools)
	} else if config.capacity < 0 {
		panicerr("capacity %v must be >= 0", config.capacity)
	}
	maxpooled := config.minblock << uint(config.numpools-1)
	if maxpooled <= 0 || maxpooled > (int64(1)<<40) {
		panicerr("largest block %v out of range", maxpooled)
	}
	checkpoolsettings(setts, config.numpools)
	config.growths = make([]growthpolicy, 0, config.numpools)
	for i := 0; i < config.numpools; i++ {
		config.growths = append(config.growths, newgrowthpolicy(poolsettings(setts, i)))
	}
	return config
}

// poolsettings return settings for pool `i`, "pool<i>.*" parameters
// override multipool wide parameters.
func poolsettings(setts lib.Settings, i int) lib.Settings {
	prefix := fmt.Sprintf("pool%v.", i)
	return setts.Clone().Mixin(setts.Section(prefix).Trim(prefix))
}

// checkpoolsettings panics on "pool<i>.*" parameters that don't refer
// to a growth setting of an existing pool.
func checkpoolsettings(setts lib.Settings, numpools int) {
	for key := range setts.Section("pool") {
		var i int
		var param string
		if _, err := fmt.Sscanf(key, "pool%d.%s", &i, &param); err != nil {
			panicerr("invalid pool setting %q", key)
		} else if i < 0 || i >= numpools {
			panicerr("setting %q for pool %v, numpools %v", key, i, numpools)
		}
		switch param {
		case "growth", "growthfactor", "maxchunk":
		default:
			panicerr("unknown pool setting %q", key)
		}
	}
}
