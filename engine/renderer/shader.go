package renderer

// litShaderSource is the single forward pipeline: Blinn-Phong with ambient, directional and
// point lights. Group 0 is the frame uniform, group 1 the per-draw object uniform (dynamic offset).
const litShaderSource = `
struct Light {
    position: vec3<f32>,
    kind: u32,
    color: vec3<f32>,
    intensity: f32,
    direction: vec3<f32>,
    reach: f32,
};

struct Frame {
    viewProj: mat4x4<f32>,
    cameraPos: vec3<f32>,
    lightCount: u32,
    ambient: vec4<f32>,
    lights: array<Light, 4>,
};

struct Object {
    model: mat4x4<f32>,
    normalMatrix: mat4x4<f32>,
    color: vec4<f32>,
};

@group(0) @binding(0) var<uniform> frame: Frame;
@group(1) @binding(0) var<uniform> obj: Object;

struct VertexIn {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) world: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
    var out: VertexOut;
    let world = obj.model * vec4<f32>(in.position, 1.0);
    out.clip = frame.viewProj * world;
    out.world = world.xyz;
    out.normal = (obj.normalMatrix * vec4<f32>(in.normal, 0.0)).xyz;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    var n = in.normal;
    if (dot(n, n) > 0.0) {
        n = normalize(n);
    }
    let v = normalize(frame.cameraPos - in.world);
    let base = obj.color.rgb;
    var color = frame.ambient.rgb * base;
    for (var i = 0u; i < min(frame.lightCount, 4u); i = i + 1u) {
        let l = frame.lights[i];
        var dir: vec3<f32>;
        var attenuation = 1.0;
        if (l.kind == 1u) {
            let d = l.position - in.world;
            let dist = length(d);
            dir = d / max(dist, 0.0001);
            let falloff = clamp(1.0 - dist / max(l.reach, 0.0001), 0.0, 1.0);
            attenuation = falloff * falloff;
        } else {
            dir = normalize(-l.direction);
        }
        let diffuse = max(dot(n, dir), 0.0);
        let h = normalize(dir + v);
        let specular = pow(max(dot(n, h), 0.0), 32.0) * 0.25;
        color = color + l.color * l.intensity * attenuation * (diffuse * base + vec3<f32>(specular));
    }
    return vec4<f32>(color, obj.color.a);
}
`

const (
	litVertexEntryPoint   = "vs_main"
	litFragmentEntryPoint = "fs_main"
)
