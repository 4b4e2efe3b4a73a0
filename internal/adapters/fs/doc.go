// Package fs provides filesystem-backed writers and snapshot stores.
package fs
