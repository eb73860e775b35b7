package video

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

var (
	ptsTimeRe   = regexp.MustCompile(`pts_time:([0-9.]+)`)
	sceneScoreRe = regexp.MustCompile(`lavfi\.scene_score=([0-9.eE+-]+)`)
)

// lineCollector buffers ffmpeg's stderr so scene-detection output (showinfo
// and metadata=print lines) can be parsed once the process exits.
type lineCollector struct {
	buf bytes.Buffer
}

func (c *lineCollector) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

// parseShowinfo scans buffered lines for interleaved lavfi.scene_score and
// pts_time entries produced by the filter chain
// "select='gt(scene,T)',metadata=print,showinfo" and pairs each pts_time
// with the most recently seen scene score.
func (c *lineCollector) parseShowinfo() []sceneCandidate {
	var candidates []sceneCandidate
	var pendingScore float64
	haveScore := false

	for _, line := range strings.Split(c.buf.String(), "\n") {
		if m := sceneScoreRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				pendingScore = v
				haveScore = true
			}
		}
		if m := ptsTimeRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				score := pendingScore
				if !haveScore {
					score = 1
				}
				candidates = append(candidates, sceneCandidate{timestamp: v, score: score})
				haveScore = false
			}
		}
	}
	return candidates
}
