package main

import "os"
import "errors"
import "testing"
import "syscall"
import "path/filepath"

import "github.com/valyala/fasthttp"
import jsoniter "github.com/json-iterator/go"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/bnclabs/gomalloc/lib"
import "github.com/bnclabs/gomalloc/malloc"

func TestLoad(t *testing.T) {
	setts := lib.Settings{"numpools": 6}
	cmp := malloc.NewConcurrentMultipool("test", malloc.NewHeapAllocator(), setts)
	ld := newload(cmp, 4, 10000, 1024, 16)
	require.NoError(t, ld.run())

	stats := ld.stats()
	assert.Equal(t, int64(10000), stats["n_allocs"])
	assert.Equal(t, int64(10000), stats["n_frees"])
	assert.Equal(t, int64(0), stats["n_failures"])
	assert.Equal(t, int64(0), stats["mpool.alloc"])
	assert.Equal(t, int64(10000), ld.latency.Samples())
	cmp.Release()
}

func TestLoadShare(t *testing.T) {
	cmp := malloc.NewConcurrentMultipool("test", malloc.NewHeapAllocator(), nil)
	ld := newload(cmp, 3, 10, 64, 4)
	shares := []int{ld.share(0), ld.share(1), ld.share(2)}
	assert.Equal(t, []int{4, 3, 3}, shares)

	require.NoError(t, ld.run())
	stats := ld.stats()
	assert.Equal(t, int64(10), stats["n_allocs"])
	assert.Equal(t, int64(10), stats["n_frees"])
	cmp.Release()
}

func TestStatshandler(t *testing.T) {
	cmp := malloc.NewConcurrentMultipool("test", malloc.NewHeapAllocator(), nil)
	ld := newload(cmp, 2, 100, 256, 8)
	require.NoError(t, ld.run())
	handler := statshandler(ld)

	get := func(uri string) *fasthttp.RequestCtx {
		var req fasthttp.Request
		req.SetRequestURI(uri)
		ctx := &fasthttp.RequestCtx{}
		ctx.Init(&req, nil, nil)
		handler(ctx)
		return ctx
	}

	ctx := get("/stats?filter=n_")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	stats := map[string]interface{}{}
	require.NoError(t, jsoniter.Unmarshal(ctx.Response.Body(), &stats))
	assert.Equal(t, float64(100), stats["n_allocs"])
	for key := range stats {
		assert.Contains(t, key, "n_")
	}
	_, ok := stats["mpool.heap"]
	assert.False(t, ok)

	ctx = get("/stats?pretty=1")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "\n")
	assert.Contains(t, string(ctx.Response.Body()), `"mpool.heap"`)

	ctx = get("/debug")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	cmp.Release()
}

func TestLoadCapacity(t *testing.T) {
	setts := lib.Settings{"numpools": 4, "capacity": 4096}
	cmp := malloc.NewConcurrentMultipool("test", malloc.NewHeapAllocator(), setts)
	ld := newload(cmp, 2, 2000, 2048, 8)
	require.NoError(t, ld.run())
	stats := ld.stats()
	assert.True(t, stats["n_failures"].(int64) > 0)
	assert.Equal(t, stats["n_allocs"], stats["n_frees"])
}

func TestLoadsettings(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "mpool.toml")
	data := "minblock = 16\nnumpools = 12\ngrowth = \"constant\"\ncapacity = 1048576\n"
	require.NoError(t, os.WriteFile(filename, []byte(data), 0644))

	options.capacity = -1
	setts, err := loadsettings(filename)
	require.NoError(t, err)
	assert.Equal(t, int64(16), setts.Int64("minblock"))
	assert.Equal(t, int64(12), setts.Int64("numpools"))
	assert.Equal(t, "constant", setts.String("growth"))
	assert.Equal(t, int64(1048576), setts.Int64("capacity"))
	assert.Equal(t, int64(32), setts.Int64("maxchunk"))

	options.capacity = 4096
	setts, err = loadsettings(filename)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), setts.Int64("capacity"))

	_, err = loadsettings(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestServeuntil(t *testing.T) {
	cmp := malloc.NewConcurrentMultipool("test", malloc.NewHeapAllocator(), nil)
	errch, sigch := make(chan error, 1), make(chan os.Signal, 1)

	_, err := cmp.Allocate(100)
	require.NoError(t, err)
	sigch <- syscall.SIGINT
	require.NoError(t, serveuntil(cmp, errch, sigch))
	assert.Equal(t, int64(0), cmp.Stats()["heap"])

	_, err = cmp.Allocate(100)
	require.NoError(t, err)
	errch <- errors.New("listen failed")
	assert.EqualError(t, serveuntil(cmp, errch, sigch), "listen failed")
	assert.Equal(t, int64(0), cmp.Stats()["heap"])
}
