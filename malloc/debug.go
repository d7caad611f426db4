//go:build debug
// +build debug

package malloc

// initblock fills newly carved blocks with 0xff so that reads of
// uninitialised memory show up.
func initblock(block []byte) {
	fillblock(block, poolblkinit)
}
