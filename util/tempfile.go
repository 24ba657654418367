package util

import (
	"crypto/rand"
	"os"
	"path/filepath"
)

// ShredingCount is the number of random overwrite passes ShredFile
// performs before the file is removed.
const ShredingCount = 7

// CreateTempfile writes data (if any) to a new temp file in dir and
// returns its path. StagingPath uses it for the file the gocv video
// writer records into before that file is renamed into place.
func CreateTempfile( dir string, data []byte ) (string, error) {
	f, err := os.CreateTemp( dir, "rvs-" )
	if err != nil {
		return "", err
	}
	defer f.Close()
	if data != nil {
		if _, err := f.Write( data ); err != nil {
			return "", err
		}
	}
	return f.Name(), nil
}

// ShredFile overwrites filename with random bytes ShredingCount times
// before removing it, for temp files that briefly held plaintext.
func ShredFile( filename string ) error {
	fileInfo, err := os.Stat( filename )
	if err != nil {
		return err
	}

	buf := make( []byte, fileInfo.Size() )
	for i := 0; i < ShredingCount; i++ {
		if _, err := rand.Read( buf ); err != nil {
			return err
		}
		if err = os.WriteFile( filename, buf, 0660 ); err != nil {
			return err
		}
	}
	return os.Remove( filename )
}

// AtomicRename publishes src as dst via rename, so a reader never
// observes a partially written destination file. src must be on the
// same filesystem as dst, which is why staging paths are created in
// dst's own directory.
func AtomicRename( src, dst string ) error {
	return os.Rename( src, dst )
}

// StagingPath returns a temp file path in the same directory as
// finalPath, so AtomicRename can complete without crossing
// filesystems.
func StagingPath( finalPath string ) (string, error) {
	return CreateTempfile( filepath.Dir( finalPath ), nil )
}
