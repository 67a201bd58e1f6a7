package shader

// BaseTemplate is loaded into an empty studio. It uses the legacy
// gl_FragColor output and redeclares the reserved uniforms, both of which
// Transform accepts.
const BaseTemplate = `#ifdef GL_ES
precision highp float;
#endif

uniform float u_time;
uniform vec2  u_resolution;
uniform vec2  u_mouse;
uniform float u_speed;
uniform float u_amp;
uniform float u_seed;

float hash(float n){ return fract(sin(n)*43758.5453123); }

void main(){
  vec2 uv = (gl_FragCoord.xy / u_resolution.xy) * 2.0 - 1.0;
  uv.x *= u_resolution.x/u_resolution.y;

  float t = u_time * u_speed;
  float s = sin(uv.x*3.14 + t) * cos(uv.y*3.14 - t);
  float n = hash(floor(uv.x*10.0 + u_seed) + floor(uv.y*10.0 + u_seed*2.0));
  float v = 0.5 + 0.5 * sin(6.2831*(s + n*0.15) + t*u_amp);

  vec3 col = vec3(0.5 + 0.5*cos(6.2831*(v + vec3(0.0,0.33,0.66))));
  gl_FragColor = vec4(col,1.0);
}`
