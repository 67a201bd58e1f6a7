package procgen

// Module is a self-contained piece of GLSL. It may only depend on the
// generator preamble and must #define Marker so the fixed main can test for it.
type Module struct {
	Label  string
	Marker string
	Body   string
}

// Library is the fixed set of modules a generated shader draws from.
var Library = []Module{
	{
		Label:  "Cosine Palette",
		Marker: "HAS_PALETTE",
		Body: `#define HAS_PALETTE 1
vec3 palette(float t){
  vec3 a = vec3(0.5, 0.5, 0.5);
  vec3 b = vec3(0.5, 0.5, 0.5);
  vec3 c = vec3(1.0, 1.0, 1.0);
  vec3 d = vec3(0.0, 0.33, 0.67);
  return a + b * cos(6.28318 * (c * t + d));
}`,
	},
	{
		Label:  "FBM Noise",
		Marker: "HAS_FBM",
		Body: `#define HAS_FBM 1
float fbmNoise(vec2 p){
  return fract(sin(dot(p, vec2(127.1, 311.7))) * 43758.5453);
}

float fbm(vec2 p){
  float value = 0.0;
  float amplitude = 0.5;
  for(int i = 0; i < 4; i++){
    value += amplitude * fbmNoise(p);
    p *= 2.0;
    amplitude *= 0.5;
  }
  return value;
}`,
	},
	{
		Label:  "Domain Warp",
		Marker: "HAS_WARP",
		Body: `#define HAS_WARP 1
float warpNoise(vec2 p){
  vec2 i = floor(p);
  vec2 f = fract(p);
  vec2 u = f * f * (3.0 - 2.0 * f);
  float a = fract(sin(dot(i, vec2(12.9898, 78.233))) * 43758.5453);
  float b = fract(sin(dot(i + vec2(1.0, 0.0), vec2(12.9898, 78.233))) * 43758.5453);
  float c = fract(sin(dot(i + vec2(0.0, 1.0), vec2(12.9898, 78.233))) * 43758.5453);
  float d = fract(sin(dot(i + vec2(1.0, 1.0), vec2(12.9898, 78.233))) * 43758.5453);
  return mix(mix(a, b, u.x), mix(c, d, u.x), u.y);
}

vec2 domainWarp(vec2 uv, float t){
  vec2 q = vec2(warpNoise(uv + vec2(0.0, 0.1 + t)), warpNoise(uv + vec2(1.0, 0.3 - t)));
  return uv + 0.5 * vec2(warpNoise(uv + q), warpNoise(uv - q));
}`,
	},
	{
		Label:  "Polar Rings",
		Marker: "HAS_RINGS",
		Body: `#define HAS_RINGS 1
float rings(vec2 uv, float t){
  float r = length(uv);
  float a = atan(uv.y, uv.x);
  return 0.5 + 0.5 * sin(r * 18.0 - t * 2.0 + sin(a * 3.0 + t));
}`,
	},
	{
		Label:  "Voronoi Cells",
		Marker: "HAS_CELLS",
		Body: `#define HAS_CELLS 1
vec2 cellHash(vec2 p){
  p = vec2(dot(p, vec2(127.1, 311.7)), dot(p, vec2(269.5, 183.3)));
  return fract(sin(p) * 43758.5453);
}

float cells(vec2 p, float t){
  vec2 i = floor(p);
  vec2 f = fract(p);
  float best = 8.0;
  for(int y = -1; y <= 1; y++){
    for(int x = -1; x <= 1; x++){
      vec2 g = vec2(float(x), float(y));
      vec2 o = 0.5 + 0.5 * sin(t + 6.2831 * cellHash(i + g));
      best = min(best, length(g + o - f));
    }
  }
  return clamp(best, 0.0, 1.0);
}`,
	},
	{
		Label:  "Kaleidoscope",
		Marker: "HAS_KALEIDO",
		Body: `#define HAS_KALEIDO 1
vec2 kaleido(vec2 uv, float segments){
  float a = atan(uv.y, uv.x);
  float r = length(uv);
  float sector = 6.28318 / segments;
  a = mod(a, sector);
  a = abs(a - 0.5 * sector);
  return r * vec2(cos(a), sin(a));
}`,
	},
}

const preamble = `#ifdef GL_ES
precision highp float;
#endif

uniform float u_time;
uniform vec2 u_resolution;
uniform float u_speed;
uniform float u_amp;
uniform float u_seed;`

// mainBody composes whichever modules were selected, in a fixed order.
const mainBody = `void main(){
  vec2 uv = (gl_FragCoord.xy / u_resolution.xy) * 2.0 - 1.0;
  uv.x *= u_resolution.x / u_resolution.y;
  float t = u_time * u_speed;
  float v = 0.5 + 0.5 * sin(t + u_seed * 0.1);
#ifdef HAS_KALEIDO
  uv = kaleido(uv, 6.0);
#endif
#ifdef HAS_WARP
  uv = domainWarp(uv * 2.0, t * 0.1);
#endif
#ifdef HAS_FBM
  v = mix(v, fbm(uv * 3.0 + u_seed), 0.6);
#endif
#ifdef HAS_RINGS
  v = mix(v, rings(uv, t), 0.5);
#endif
#ifdef HAS_CELLS
  v = mix(v, cells(uv * 4.0, t), 0.4);
#endif
  v = clamp(v * u_amp, 0.0, 1.0);
  vec3 col = vec3(v);
#ifdef HAS_PALETTE
  col = palette(v + t * 0.05);
#endif
  fragColor = vec4(col, 1.0);
}`
