package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goshaderlab/audio"
	"github.com/richinsley/goshaderlab/export"
	"github.com/richinsley/goshaderlab/frame"
	"github.com/richinsley/goshaderlab/glfwcontext"
	"github.com/richinsley/goshaderlab/options"
	"github.com/richinsley/goshaderlab/procgen"
	"github.com/richinsley/goshaderlab/renderer"
	"github.com/richinsley/goshaderlab/settings"
	"github.com/richinsley/goshaderlab/store"
	"github.com/richinsley/goshaderlab/studio"
	"github.com/richinsley/goshaderlab/telemetry"
)

const audioSampleRate = 44100

func init() {
	runtime.LockOSThread()
}

// shaderFile reports the contents of a fragment body file whenever its
// modification time changes.
type shaderFile struct {
	path    string
	modTime time.Time
}

func (f *shaderFile) changed() (string, bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		return "", false
	}
	if info.ModTime().Equal(f.modTime) {
		return "", false
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		log.Printf("Failed to read %s: %v", f.path, err)
		return "", false
	}
	f.modTime = info.ModTime()
	return string(data), true
}

func parseOptions() *options.StudioOptions {
	opts := &options.StudioOptions{
		Help:         flag.Bool("help", false, "Show help message"),
		Mode:         flag.String("mode", "live", "Run mode: live or record"),
		Width:        flag.Int("width", 0, "Window or output width (default from settings resolution)"),
		Height:       flag.Int("height", 0, "Window or output height (default from settings resolution)"),
		ShaderFile:   flag.String("shader", "", "Fragment shader body to load and watch for changes"),
		Seed:         flag.Int("seed", -1, "Generate the initial shader from this seed"),
		PresetsFile:  flag.String("presets", "", "YAML preset library"),
		SettingsFile: flag.String("settings", "", "Settings file (default in the user config dir)"),
		Duration:     flag.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:          flag.Int("fps", 0, "Frames per second for recording (default from settings)"),
		OutputFile:   flag.String("output", "output.mp4", "Output file name for recording"),
		Codec:        flag.String("codec", "h264", "Video codec for recording: h264 or hevc"),
		StatsFile:    flag.String("stats", "", "Write frame timing summaries to this CSV file"),
		AudioInput:   flag.String("audio", "", "Audio input: off or mic (default from settings)"),
	}
	flag.Parse()
	return opts
}

func openSettings(opts *options.StudioOptions) *settings.Store {
	path := *opts.SettingsFile
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			log.Printf("No user config dir, settings are not persisted: %v", err)
		}
	}
	return settings.Open(path)
}

func newStore(opts *options.StudioOptions) *store.Store {
	var storeOpts []store.Option
	if *opts.PresetsFile != "" {
		presets, err := store.LoadPresetFile(*opts.PresetsFile)
		if err != nil {
			log.Printf("Failed to load presets: %v", err)
		} else {
			log.Printf("Loaded %d presets from %s", len(presets), *opts.PresetsFile)
			storeOpts = append(storeOpts, store.WithPresets(presets))
		}
	}
	s := store.New(storeOpts...)

	if *opts.Seed >= 0 {
		s.SetSeed(*opts.Seed)
		s.SetShader(procgen.Generate(uint32(*opts.Seed)))
	}
	return s
}

// startAudio returns a poll function feeding audio levels into the store,
// and a stop function.
func startAudio(input string, s *store.Store) (poll func(), stop func()) {
	var dev audio.Device = audio.NewNullDevice(audioSampleRate)
	if input == "mic" {
		mic, err := audio.NewMicrophone(audioSampleRate)
		if err != nil {
			log.Printf("Audio input disabled: %v", err)
		} else {
			dev = mic
		}
	}
	ch, err := dev.Start()
	if err != nil {
		log.Printf("Audio input disabled: %v", err)
		dev.Stop()
		dev = audio.NewNullDevice(audioSampleRate)
		ch, _ = dev.Start()
	}
	analyzer := audio.NewAnalyzer(dev.SampleRate())
	done := analyzer.Listen(ch)
	poll = func() { analyzer.Levels().Apply(s) }
	if _, silent := dev.(*audio.NullDevice); silent {
		poll = func() {}
	}
	stop = func() {
		if err := dev.Stop(); err != nil {
			log.Printf("Error stopping audio input: %v", err)
		}
		<-done
	}
	return poll, stop
}

func main() {
	opts := parseOptions()
	if *opts.Help {
		fmt.Println("goshaderlab: live GLSL fragment shader studio")
		flag.PrintDefaults()
		return
	}

	prefs := openSettings(opts)
	cfg := prefs.Get()
	if *opts.Width <= 0 || *opts.Height <= 0 {
		w, h := cfg.Dimensions()
		*opts.Width, *opts.Height = w/2, h/2
		if *opts.Mode == "record" {
			*opts.Width, *opts.Height = w, h
		}
	}
	if *opts.FPS <= 0 {
		*opts.FPS = cfg.FPS
	}
	if *opts.AudioInput == "" {
		*opts.AudioInput = cfg.AudioInput
	}

	s := newStore(opts)
	var watched *shaderFile
	if *opts.ShaderFile != "" {
		watched = &shaderFile{path: *opts.ShaderFile}
		if src, ok := watched.changed(); ok {
			s.SetShader(src)
		} else {
			log.Printf("Failed to read %s, starting from the base template", *opts.ShaderFile)
		}
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize graphics: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	record := *opts.Mode == "record"
	win, err := glfwcontext.New(opts, !record)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer win.Shutdown()

	queue := frame.NewQueue()
	r := renderer.New(queue, studio.CompileErrorHandler(s))
	st := studio.New(s, r)
	st.Errors.OnChange = func(message string) {
		if message == "" {
			log.Printf("Shader compiled")
			win.SetTitle("goshaderlab")
			return
		}
		log.Printf("Shader errors:\n%s", message)
		win.SetTitle("goshaderlab - shader error")
	}
	if err := st.Open(win); err != nil {
		log.Fatalf("%s: %v", st.Preview.Status(), err)
	}
	defer st.Close()

	if record {
		runRecord(opts, win, queue)
		return
	}

	pollAudio, stopAudio := startAudio(*opts.AudioInput, s)
	defer stopAudio()

	win.RegisterKeyCallback(glfw.KeyR, st.Randomize)
	win.RegisterKeyCallback(glfw.KeyM, st.Mutate)
	win.RegisterKeyCallback(glfw.KeyS, func() {
		p, _ := st.SavePreset(fmt.Sprintf("Seed %d", s.State().Seed))
		if *opts.PresetsFile == "" {
			return
		}
		if err := s.SavePresetFile(*opts.PresetsFile); err != nil {
			log.Printf("Failed to save preset %s: %v", p.ID, err)
		}
	})

	var stats *telemetry.FrameStats
	var statsOut *telemetry.CSVWriter
	if *opts.StatsFile != "" {
		if statsOut, err = telemetry.CreateCSV(*opts.StatsFile); err != nil {
			log.Printf("Frame stats disabled: %v", err)
		} else {
			defer statsOut.Close()
			stats = telemetry.NewFrameStats(0)
		}
	}

	log.Println("Starting interactive render loop...")
	lastPoll, lastReport := time.Duration(0), time.Duration(0)
	for !win.ShouldClose() {
		now := time.Duration(win.Time() * float64(time.Second))
		if watched != nil && now-lastPoll > 500*time.Millisecond {
			lastPoll = now
			if src, ok := watched.changed(); ok {
				st.Edit(src)
			}
		}
		pollAudio()
		queue.Tick(now)

		if stats != nil {
			stats.Frame(now)
			if now-lastReport >= time.Second {
				lastReport = now
				if err := statsOut.Write(stats.Summary()); err != nil {
					log.Printf("Frame stats: %v", err)
				}
			}
		}
		win.EndFrame()
	}
}

func runRecord(opts *options.StudioOptions, win *glfwcontext.Context, queue *frame.Queue) {
	width, height := win.GetFramebufferSize()
	rec := &export.Recorder{
		Queue:  queue,
		Reader: win.GLDevice(),
		Width:  width,
		Height: height,
		FPS:    *opts.FPS,
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sink := export.NewFFmpegSink(*opts.OutputFile, width, height, *opts.FPS, *opts.Codec)
	duration := time.Duration(*opts.Duration * float64(time.Second))
	log.Println("Starting offscreen render loop...")
	if _, err := rec.Record(ctx, duration, sink); err != nil {
		log.Printf("Recording failed: %v", err)
		return
	}
	log.Printf("Successfully rendered to %s", *opts.OutputFile)
}
