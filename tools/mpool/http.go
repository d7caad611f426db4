package main

import "github.com/valyala/fasthttp"

import "github.com/bnclabs/gomalloc/lib"
import "github.com/bnclabs/gomalloc/log"

// servestats on `addr`, refer to statshandler. Server errors are posted
// on the returned channel.
func servestats(addr string, ld *load) chan error {
	errch := make(chan error, 1)
	go func() {
		log.Infof("serving stats on http://%v/stats\n", addr)
		errch <- fasthttp.ListenAndServe(addr, statshandler(ld))
	}()
	return errch
}

// statshandler "/stats" return load and multipool statistics as json,
// "?filter=<subs>" limits them to keys containing subs and "?pretty"
// indents the output.
func statshandler(ld *load) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/stats" {
			ctx.Error("not found", fasthttp.StatusNotFound)
			return
		}
		stats := lib.Settings(ld.stats())
		if subs := string(ctx.QueryArgs().Peek("filter")); subs != "" {
			stats = stats.Filter(subs)
		}
		ctx.SetContentType("application/json")
		pretty := ctx.QueryArgs().GetBool("pretty")
		ctx.WriteString(lib.Prettystats(stats, pretty))
	}
}
