// Package lib provide useful functions and features that are not
// particularly tied up with any allocator. They are meant to be small,
// self-contained: settings, alignment arithmetic and statistics.
package lib
