package renderer

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/richinsley/goshaderlab/frame"
	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/uniforms"
)

const body = `uniform float u_speed;
uniform vec3 u_tint;
uniform bool u_invert;
void main() {
    gl_FragColor = vec4(u_tint * u_speed, 1.0);
}
`

var specs = []uniforms.Spec{
	{Name: "u_speed", Kind: uniforms.Scalar(), Default: uniforms.Value{1}},
	{Name: "u_tint", Kind: uniforms.Vector(3), Default: uniforms.Value{1, 0.5, 0}},
	{Name: "u_invert", Kind: uniforms.Bool(), Default: uniforms.Value{0}},
	{Name: "u_unused", Kind: uniforms.Scalar(), Default: uniforms.Value{3}},
}

type harness struct {
	dev     *fakeDevice
	surface *fakeSurface
	queue   *frame.Queue
	r       *Renderer
	errs    []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dev:   newFakeDevice(),
		queue: frame.NewQueue(),
	}
	h.surface = &fakeSurface{width: 400, height: 300, ratio: 1, dev: h.dev}
	h.r = New(h.queue, func(err error) { h.errs = append(h.errs, err) })
	if err := h.r.Initialize(h.surface); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return h
}

func (h *harness) lastErr() error {
	if len(h.errs) == 0 {
		return nil
	}
	return h.errs[len(h.errs)-1]
}

func TestInitializeUnavailable(t *testing.T) {
	q := frame.NewQueue()
	r := New(q, nil)
	err := r.Initialize(&fakeSurface{err: errors.New("no webgl2")})
	if !errors.Is(err, ErrContextUnavailable) {
		t.Fatalf("got %v, want ErrContextUnavailable", err)
	}
	if !errors.Is(r.Initialize(&fakeSurface{dev: newFakeDevice()}), ErrContextUnavailable) {
		t.Error("a failed renderer must stay unavailable")
	}
	r.Start()
	if q.Pending() != 0 {
		t.Error("Start scheduled frames without a context")
	}
	r.Dispose()
	r.Dispose()
}

func TestCompileSuccess(t *testing.T) {
	h := newHarness(t)
	if got := h.r.State(); got != ContextReady {
		t.Fatalf("state %v, want context-ready", got)
	}
	h.r.Compile(body, specs)

	if len(h.errs) != 1 || h.errs[0] != nil {
		t.Fatalf("callback got %v, want a single nil", h.errs)
	}
	if h.r.ActiveProgram() == 0 {
		t.Fatal("no active program")
	}
	if got := h.r.State(); got != Linked {
		t.Errorf("state %v, want linked", got)
	}
	want := []string{"u_resolution", "u_mouse", "u_time", "u_speed", "u_tint", "u_invert"}
	if got := h.r.BoundUniforms(); !slices.Equal(got, want) {
		t.Errorf("bound %v, want %v", got, want)
	}
	if len(h.dev.shaderSource) != 0 {
		t.Errorf("%d shader objects leaked", len(h.dev.shaderSource))
	}
	src, _ := h.r.ActiveSource()
	if !strings.Contains(src.Fragment, "fragColor = vec4(u_tint") {
		t.Error("legacy output not rewritten")
	}

	h.r.Start()
	if got := h.r.State(); got != Running {
		t.Errorf("state %v, want running", got)
	}
}

func TestCompileFailureKeepsProgram(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	before := h.r.ActiveProgram()
	bound := h.r.BoundUniforms()

	var during State
	h.r.onCompileError = func(err error) {
		h.errs = append(h.errs, err)
		during = h.r.State()
	}
	h.dev.failFragment = "ERROR: 0:9: 'tint' : undeclared identifier\nERROR: 0:3: syntax error"
	h.r.Compile("void main() { tint; }", nil)

	var ce *ShaderCompileError
	if !errors.As(h.lastErr(), &ce) {
		t.Fatalf("got %v, want *ShaderCompileError", h.lastErr())
	}
	if ce.Stage != graphics.FragmentStage {
		t.Errorf("stage %v", ce.Stage)
	}
	if want := "ERROR: 0:3: 'tint' : undeclared identifier\nERROR: 0:1: syntax error"; ce.Log != want {
		t.Errorf("log %q, want %q", ce.Log, want)
	}
	if during != CompileFailed {
		t.Errorf("state during callback %v, want compile-failed", during)
	}
	if got := h.r.State(); got != Linked {
		t.Errorf("state after failure %v, want linked", got)
	}
	if h.r.ActiveProgram() != before {
		t.Error("failed compile replaced the active program")
	}
	if !slices.Equal(h.r.BoundUniforms(), bound) {
		t.Error("failed compile changed the binding table")
	}
	if len(h.dev.shaderSource) != 0 || len(h.dev.programs) != 1 {
		t.Errorf("leaked objects: %d shaders, %d programs", len(h.dev.shaderSource), len(h.dev.programs))
	}

	h.r.Start()
	h.queue.Tick(0)
	if h.dev.used != before || h.dev.draws != 1 {
		t.Errorf("expected the previous program to keep drawing")
	}

	// a later success clears the error
	h.dev.failFragment = ""
	h.r.Compile(body, specs)
	if h.lastErr() != nil {
		t.Errorf("success reported %v", h.lastErr())
	}
	if _, ok := h.dev.programs[before]; ok {
		t.Error("old program not released after a successful compile")
	}
}

func TestLinkFailure(t *testing.T) {
	h := newHarness(t)
	h.dev.failLink = "ERROR: 0:12: overlapping outputs"
	h.r.Compile(body, specs)

	var le *ShaderLinkError
	if !errors.As(h.lastErr(), &le) {
		t.Fatalf("got %v, want *ShaderLinkError", h.lastErr())
	}
	if le.Log != "ERROR: 0:6: overlapping outputs" {
		t.Errorf("log %q", le.Log)
	}
	if len(h.dev.programs) != 0 || len(h.dev.shaderSource) != 0 {
		t.Error("failed link leaked objects")
	}
	if h.r.State() != ContextReady {
		t.Errorf("state %v, want context-ready", h.r.State())
	}
}

func TestVertexFailureWithPlainError(t *testing.T) {
	h := newHarness(t)
	h.dev.vertexError = errors.New("translator: out of memory")
	h.r.Compile(body, specs)
	var ce *ShaderCompileError
	if !errors.As(h.lastErr(), &ce) || ce.Stage != graphics.VertexStage {
		t.Fatalf("got %v", h.lastErr())
	}
	if ce.Log != "translator: out of memory" {
		t.Errorf("log %q", ce.Log)
	}
}

func TestCompileWithoutContext(t *testing.T) {
	var got error
	r := New(frame.NewQueue(), func(err error) { got = err })
	r.Compile(body, specs)
	if !errors.Is(got, ErrContextUnavailable) {
		t.Errorf("got %v", got)
	}
}

func TestResizeAppliesViewportOnce(t *testing.T) {
	h := newHarness(t)
	h.surface.width, h.surface.height, h.surface.ratio = 800, 600, 2
	h.r.Compile(body, specs)
	h.r.Start()

	h.queue.Tick(0)
	h.surface.width, h.surface.height = 1600, 1200
	for i := 1; i <= 4; i++ {
		h.queue.Tick(time.Duration(i) * 16 * time.Millisecond)
	}

	want := [][4]int{{0, 0, 1600, 1200}, {0, 0, 3200, 2400}}
	if !slices.Equal(h.dev.viewports, want) {
		t.Errorf("viewports %v, want %v", h.dev.viewports, want)
	}
	if w, hh := h.r.BackingSize(); w != 3200 || hh != 2400 {
		t.Errorf("backing size %dx%d", w, hh)
	}
}

func TestBackingSizeIsFloored(t *testing.T) {
	h := newHarness(t)
	h.surface.width, h.surface.height, h.surface.ratio = 333, 201, 1.5
	h.r.Compile(body, specs)
	h.r.Start()
	h.queue.Tick(0)
	if want := [4]int{0, 0, 499, 301}; len(h.dev.viewports) != 1 || h.dev.viewports[0] != want {
		t.Errorf("viewports %v, want %v", h.dev.viewports, want)
	}
}

func TestReservedUniforms(t *testing.T) {
	h := newHarness(t)
	h.surface.ratio = 2
	h.surface.px, h.surface.py = 100, 50
	h.r.Compile(body, append(slices.Clone(specs), uniforms.Spec{Name: "u_time", Default: uniforms.Value{7}}))
	h.r.SetUniformValues(uniforms.ValueMap{"u_time": {99}, "u_speed": {2}})
	h.r.Start()

	h.queue.Tick(5 * time.Second)
	res, _ := h.dev.uploaded("u_resolution")
	if !slices.Equal(res.floats, []float32{800, 600}) {
		t.Errorf("resolution %v", res.floats)
	}
	mouse, _ := h.dev.uploaded("u_mouse")
	if !slices.Equal(mouse.floats, []float32{200, 500}) {
		t.Errorf("mouse %v, want y flipped device pixels", mouse.floats)
	}
	tm, _ := h.dev.uploaded("u_time")
	if !slices.Equal(tm.floats, []float32{0}) {
		t.Errorf("time on first frame %v", tm.floats)
	}

	h.queue.Tick(6500 * time.Millisecond)
	tm, _ = h.dev.uploaded("u_time")
	if !slices.Equal(tm.floats, []float32{1.5}) {
		t.Errorf("time %v, want 1.5", tm.floats)
	}
	loc, _ := h.dev.UniformLocation(h.dev.used, "u_time")
	n := 0
	for _, u := range h.dev.uploads {
		if u.loc == loc {
			n++
		}
	}
	if n != 2 {
		t.Errorf("u_time uploaded %d times over two frames", n)
	}
}

func TestElapsedResetsOnRecompile(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	h.r.Start()
	h.queue.Tick(time.Second)
	h.queue.Tick(3 * time.Second)
	h.r.Compile(body, specs)
	h.queue.Tick(4 * time.Second)
	tm, _ := h.dev.uploaded("u_time")
	if !slices.Equal(tm.floats, []float32{0}) {
		t.Errorf("time after recompile %v, want 0", tm.floats)
	}
}

func TestKindDirectedUpload(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	h.r.SetUniformValues(uniforms.ValueMap{
		"u_speed":  {2},
		"u_tint":   {0.5},
		"u_invert": {1},
		"u_unused": {4},
		"u_stray":  {9},
	})
	h.r.Start()
	h.queue.Tick(0)

	speed, _ := h.dev.uploaded("u_speed")
	if !slices.Equal(speed.floats, []float32{2}) {
		t.Errorf("u_speed %v", speed.floats)
	}
	tint, _ := h.dev.uploaded("u_tint")
	if !slices.Equal(tint.floats, []float32{0.5, 0.5, 0.5}) {
		t.Errorf("u_tint %v, want broadcast", tint.floats)
	}
	inv, _ := h.dev.uploaded("u_invert")
	if !slices.Equal(inv.floats, []float32{1}) {
		t.Errorf("u_invert %v, want 1", inv.floats)
	}
	// 3 reserved + 3 live user uniforms
	if len(h.dev.uploads) != 6 {
		t.Errorf("%d uploads, want 6", len(h.dev.uploads))
	}
	if len(h.dev.rejected) != 0 {
		t.Errorf("rejected uploads %v", h.dev.rejected)
	}
}

func TestToggleOnFloatUniform(t *testing.T) {
	h := newHarness(t)
	h.r.Compile("uniform float u_flag;\nvoid main(){ fragColor = vec4(u_flag); }", []uniforms.Spec{
		{Name: "u_flag", Kind: uniforms.Bool(), Default: uniforms.Value{0}},
	})
	h.r.SetUniformValues(uniforms.ValueMap{"u_flag": {1}})
	h.r.Start()
	h.queue.Tick(0)

	flag, ok := h.dev.uploaded("u_flag")
	if !ok || !slices.Equal(flag.floats, []float32{1}) {
		t.Errorf("u_flag %+v, want 1", flag)
	}
	if len(h.dev.rejected) != 0 {
		t.Errorf("rejected uploads %v", h.dev.rejected)
	}
}

func TestClearsBeforeEachDraw(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	h.r.Start()
	h.queue.Tick(0)
	h.queue.Tick(time.Millisecond)
	if h.dev.clears != 2 || h.dev.draws != 2 {
		t.Fatalf("%d clears, %d draws", h.dev.clears, h.dev.draws)
	}
	if h.dev.clearRGBA != [4]float32{0, 0, 0, 1} {
		t.Errorf("clear color %v", h.dev.clearRGBA)
	}
}

func TestValuesAppliedOnNextFrame(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	h.r.Start()
	h.r.SetUniformValues(uniforms.ValueMap{"u_speed": {1}})
	h.queue.Tick(0)

	values := uniforms.ValueMap{"u_speed": {3}}
	h.r.SetUniformValues(values)
	values["u_speed"][0] = 10
	if len(h.dev.uploads) != 4 {
		t.Fatalf("SetUniformValues uploaded immediately")
	}
	h.queue.Tick(time.Millisecond)
	speed, _ := h.dev.uploaded("u_speed")
	if !slices.Equal(speed.floats, []float32{3}) {
		t.Errorf("u_speed %v, want 3", speed.floats)
	}
}

func TestLoopRunsBeforeFirstCompile(t *testing.T) {
	h := newHarness(t)
	h.r.Start()
	h.queue.Tick(0)
	h.queue.Tick(time.Millisecond)
	if h.dev.draws != 0 {
		t.Errorf("drew %d frames without a program", h.dev.draws)
	}
	if h.queue.Pending() != 1 {
		t.Fatal("loop stopped rescheduling")
	}
	h.r.Compile(body, specs)
	h.queue.Tick(2 * time.Millisecond)
	if h.dev.draws != 1 {
		t.Errorf("draws %d after compile", h.dev.draws)
	}
}

func TestDispose(t *testing.T) {
	h := newHarness(t)
	h.r.Compile(body, specs)
	h.r.Start()
	h.r.Start()
	if h.queue.Pending() != 1 {
		t.Errorf("restart left %d pending frames", h.queue.Pending())
	}

	h.r.Dispose()
	h.r.Dispose()
	if h.queue.Pending() != 0 {
		t.Error("Dispose left a pending frame")
	}
	if len(h.dev.programs) != 0 || len(h.dev.vaos) != 0 || len(h.dev.buffers) != 0 {
		t.Error("Dispose leaked GPU objects")
	}
	if h.r.State() != Disposed {
		t.Errorf("state %v", h.r.State())
	}
	h.r.Start()
	if h.queue.Pending() != 0 {
		t.Error("Start after Dispose scheduled a frame")
	}
}

func TestDisposeWithoutProgram(t *testing.T) {
	h := newHarness(t)
	h.r.Dispose()
	if len(h.dev.vaos) != 0 || len(h.dev.buffers) != 0 {
		t.Error("vertex state not released")
	}
}
