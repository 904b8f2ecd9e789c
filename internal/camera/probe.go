package camera

import "gocv.io/x/gocv"

// ProbeResult describes one probed camera index.
type ProbeResult struct {
	Index     int     `json:"index"`
	Available bool    `json:"available"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Fps       float64 `json:"fps,omitempty"`
}

// Probe opens each index from 0 through maxIndex and reports what it found.
// Used by the devices CLI command; the serve path uses Open instead.
func Probe(maxIndex int) []ProbeResult {
	if maxIndex < 0 {
		maxIndex = maxProbeIndex
	}

	results := make([]ProbeResult, 0, maxIndex+1)
	for idx := 0; idx <= maxIndex; idx++ {
		result := ProbeResult{Index: idx}

		cap, err := gocv.OpenVideoCapture(idx)
		if err == nil && cap.IsOpened() && warmup(cap) {
			result.Available = true
			result.Width = int(cap.Get(gocv.VideoCaptureFrameWidth))
			result.Height = int(cap.Get(gocv.VideoCaptureFrameHeight))
			result.Fps = cap.Get(gocv.VideoCaptureFPS)
		}
		if err == nil {
			cap.Close()
		}

		results = append(results, result)
	}
	return results
}
