package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BaseName returns the final path component of filename, accepting
// both '/' and '\' separators.
func BaseName( filename string ) string {
	parts := strings.Split( filename, "/" )
	if len(parts) == 1 {
		parts = strings.Split( filename, "\\" )
	}
	return parts[ len(parts) - 1 ]
}

// FixUnicode normalizes filenames to NFC so names embedded in
// metadata records compare equal regardless of the originating
// filesystem's normalization form.
func FixUnicode( in string ) string {
	return norm.NFC.String( in )
}
