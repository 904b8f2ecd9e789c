package capture

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var (
	overlayRed   = color.RGBA{R: 255, A: 255}
	overlayWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// annotate stamps the overlay onto the display frame: the current
// wall-clock time always, plus the REC marker and elapsed seconds while
// a session is active.
func annotate(frame *gocv.Mat, now time.Time, recording bool, elapsed time.Duration) {
	clock := now.Format("2006-01-02 15:04:05")
	gocv.PutText(frame, clock, image.Pt(10, frame.Rows()-10),
		gocv.FontHersheySimplex, 0.5, overlayWhite, 1)

	if !recording {
		return
	}
	gocv.PutText(frame, "REC", image.Pt(20, 50),
		gocv.FontHersheySimplex, 1, overlayRed, 2)
	gocv.PutText(frame, fmt.Sprintf("Time: %ds", int(elapsed.Seconds())), image.Pt(20, 90),
		gocv.FontHersheySimplex, 0.7, overlayRed, 2)
}

// placeholder renders a dark frame with the given status lines so feed
// viewers see an explicit error state instead of a stalled stream.
func placeholder(width, height int, lines ...string) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	y := height/2 - (len(lines)-1)*25
	for i, line := range lines {
		gocv.PutText(&frame, line, image.Pt(30, y+i*50),
			gocv.FontHersheySimplex, 0.8, overlayWhite, 2)
	}
	return frame
}

// encodeJPEG serializes a frame into an owned byte slice. The copy
// matters: the gocv buffer is freed on Close and the feed keeps the
// bytes alive past this call.
func encodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
