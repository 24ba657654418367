package videostream

import "rvs/util"

// atomicPublish renames a completed staging file into place. Writers
// always stage in the destination's own directory so the rename is
// guaranteed atomic on the same filesystem.
func atomicPublish(stagingPath, finalPath string) error {
	return util.AtomicRename(stagingPath, finalPath)
}
