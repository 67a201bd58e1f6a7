package export

import (
	"fmt"
	"io"
	"log"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegSink pipes raw frames into an ffmpeg process encoding to a file.
type FFmpegSink struct {
	pipeWriter *io.PipeWriter
	errc       chan error
	closed     bool
}

// EncoderArgs returns the ffmpeg input and output arguments for frames of
// the given size. Frames arrive bottom row first, so they are flipped.
func EncoderArgs(width, height, fps int, codec string) (ffmpeg.KwArgs, ffmpeg.KwArgs) {
	inputArgs := ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": strconv.Itoa(fps),
	}
	vcodec := "libx264"
	if codec == "hevc" {
		vcodec = "libx265"
	}
	outputArgs := ffmpeg.KwArgs{
		"vcodec":  vcodec,
		"pix_fmt": "yuv420p",
		"vf":      "vflip",
	}
	return inputArgs, outputArgs
}

// NewFFmpegSink starts ffmpeg writing to outputFile, overwriting it.
func NewFFmpegSink(outputFile string, width, height, fps int, codec string) *FFmpegSink {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := EncoderArgs(width, height, fps, codec)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(outputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	s := &FFmpegSink{
		pipeWriter: pipeWriter,
		errc:       make(chan error, 1),
	}
	go func() {
		err := ffmpegCmd.Run()
		// unblock a writer if ffmpeg exits early
		pipeReader.CloseWithError(io.ErrClosedPipe)
		s.errc <- err
	}()
	log.Printf("Encoding %dx%d@%d to %s", width, height, fps, outputFile)
	return s
}

func (s *FFmpegSink) WriteFrame(rgba []byte) error {
	if _, err := s.pipeWriter.Write(rgba); err != nil {
		return fmt.Errorf("error writing frame to ffmpeg: %w", err)
	}
	return nil
}

// Close ends the input stream and waits for ffmpeg to finish.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pipeWriter.Close()
	if err := <-s.errc; err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}
