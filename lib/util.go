package lib

import "fmt"
import "strings"

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parsecsv split comma separated `input` into its values, values are
// trimmed of white space and empty values are skipped.
func Parsecsv(input string) []string {
	var outs []string
	for _, s := range strings.Split(input, ",") {
		if s = strings.TrimSpace(s); s != "" {
			outs = append(outs, s)
		}
	}
	return outs
}

// Prettystats uses json.MarshalIndent, if pretty is true, instead of
// json.Marshal. If Marshal return error Prettystats will panic.
func Prettystats(stats map[string]interface{}, pretty bool) string {
	if pretty {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			panic(err)
		}
		return string(data)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Mixinstats merge `stats` into `dst` with every key prefixed by `prefix`.
func Mixinstats(dst map[string]interface{}, prefix string, stats map[string]interface{}) map[string]interface{} {
	Settings(dst).Mixin(Settings(stats).AddPrefix(prefix))
	return dst
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
