// Package policy decides whether a produced file must be re-encoded to fit a
// caller-specified size ceiling, and at which bitrates. The decision is pure
// integer arithmetic: the same (size, ceiling, duration) inputs always yield
// the same bitrate pair.
package policy

// Bitrate bounds in bits per second. The split reserves a fixed audio
// allocation, shrunk proportionally for small ceilings.
const (
	overheadPct = 2 // container overhead margin taken off the ceiling

	audioTargetBps = 128_000
	audioFloorBps  = 64_000
	videoFloorBps  = 500_000
)

// Decision is the computed compression target for one job. When BestEffort is
// set, the floor bitrates exceed what the ceiling allows and the output may
// come in above the ceiling; the encode still proceeds.
type Decision struct {
	Required        bool
	VideoBitrateBps int64
	AudioBitrateBps int64
	BestEffort      bool
}

// Decide returns the compression decision for a file of sizeBytes against
// ceilingBytes, given the media duration in seconds.
func Decide(sizeBytes, ceilingBytes int64, durationSec float64) Decision {
	if sizeBytes <= ceilingBytes {
		return Decision{}
	}

	secs := int64(durationSec)
	if durationSec > float64(secs) {
		secs++ // round duration up so the bit budget is never overshot
	}
	if secs < 1 {
		secs = 1
	}

	usableBits := ceilingBytes * 8 * (100 - overheadPct) / 100
	totalBps := usableBits / secs

	audio := int64(audioTargetBps)
	if audio > totalBps/4 {
		audio = totalBps / 4
	}
	if audio < audioFloorBps {
		audio = audioFloorBps
	}

	video := totalBps - audio
	bestEffort := false
	if video < videoFloorBps {
		video = videoFloorBps
		bestEffort = true
	}

	return Decision{
		Required:        true,
		VideoBitrateBps: video,
		AudioBitrateBps: audio,
		BestEffort:      bestEffort,
	}
}

// MB converts a byte count to megabytes rounded to one decimal, matching how
// file sizes are reported in API responses.
func MB(bytes int64) float64 {
	return float64((bytes*10+512*1024)/(1024*1024)) / 10
}
