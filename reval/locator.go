package reval

import "path/filepath"

// ResultPath returns where the detections of one class are expected:
// <outputDir>/comp4_det_<imageSet>_<class>.txt. No I/O is performed.
func ResultPath(outputDir, imageSet, class string) string {
	return filepath.Join(outputDir, "comp4_det_"+imageSet+"_"+class+".txt")
}
