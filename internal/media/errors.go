package media

import "fmt"

// FetchError reports that one source URL could not be retrieved. The URL is
// carried so job error details can name the failing source.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PipelineError reports a failed ffmpeg/ffprobe invocation. Stderr is trimmed
// to its tail, which is where ffmpeg puts the actionable line.
type PipelineError struct {
	Step   string // "probe", "concat" or "encode"
	Stderr string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Step, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
