package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformTimestampsCentersOfIntervals(t *testing.T) {
	ts := uniformTimestamps(120, 12)
	require := assert.New(t)
	require.Len(ts, 12)
	require.InDelta(5, ts[0], 1e-9)   // (0+0.5)*120/12
	require.InDelta(115, ts[11], 1e-9) // (11+0.5)*120/12
	for i := 1; i < len(ts); i++ {
		require.Greater(ts[i], ts[i-1])
	}
}

func TestUniformTimestampsWithinDuration(t *testing.T) {
	duration := 30.0
	ts := uniformTimestamps(duration, 10)
	for _, v := range ts {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, duration)
	}
}

func TestParseShowinfoPairsScoreWithTimestamp(t *testing.T) {
	c := &lineCollector{}
	c.Write([]byte("frame:1    pts:100 pts_time:1.234000 lavfi.scene_score=0.512300\n"))
	c.Write([]byte("something unrelated\n"))
	c.Write([]byte("lavfi.scene_score=0.900000\n"))
	c.Write([]byte("[Parsed_showinfo_2] n:1 pts_time:2.500000\n"))

	candidates := c.parseShowinfo()
	require := assert.New(t)
	require.Len(candidates, 2)
	require.InDelta(1.234, candidates[0].timestamp, 1e-6)
	require.InDelta(0.5123, candidates[0].score, 1e-6)
	require.InDelta(2.5, candidates[1].timestamp, 1e-6)
	require.InDelta(0.9, candidates[1].score, 1e-6)
}

func TestParseShowinfoDefaultsScoreWhenAbsent(t *testing.T) {
	c := &lineCollector{}
	c.Write([]byte("pts_time:3.000000\n"))
	candidates := c.parseShowinfo()
	assert.NotEmpty(t, candidates)
	assert.Equal(t, 1.0, candidates[0].score)
}

func TestRoundTimestamp(t *testing.T) {
	assert.Equal(t, 1.235, RoundTimestamp(1.23456))
	assert.Equal(t, 0.0, RoundTimestamp(0.0001))
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, DefaultK, o.K)
	assert.Equal(t, Uniform, o.Strategy)
	assert.Equal(t, DefaultSceneThreshold, o.SceneThreshold)
}
