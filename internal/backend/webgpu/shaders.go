//go:build windows

package webgpu

// WGSL compute shaders for the point-cloud kernels.
// Every shader reads its dimensions from a uniform Params block at the last
// binding and flattens a possibly 2D dispatch into one invocation index.

// fpsShader runs furthest-point sampling, one invocation per batch.
const fpsShader = `
struct Params {
    b: u32,
    n: u32,
    m: u32,
}

@group(0) @binding(0) var<storage, read> xyz: array<f32>;
@group(0) @binding(1) var<storage, read_write> scratch: array<f32>;
@group(0) @binding(2) var<storage, read_write> idx: array<i32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let i = gid.y * nwg.x * 256u + gid.x;
    if (i >= params.b) {
        return;
    }
    let n = params.n;
    let m = params.m;
    let pts = i * n * 3u;
    let tmp = i * n;

    var old = 0u;
    idx[i * m] = 0;
    for (var j = 1u; j < m; j = j + 1u) {
        let x1 = xyz[pts + old * 3u];
        let y1 = xyz[pts + old * 3u + 1u];
        let z1 = xyz[pts + old * 3u + 2u];

        var best = -1.0;
        var besti = 0u;
        for (var k = 0u; k < n; k = k + 1u) {
            let x2 = xyz[pts + k * 3u];
            let y2 = xyz[pts + k * 3u + 1u];
            let z2 = xyz[pts + k * 3u + 2u];

            let d = (x2 - x1) * (x2 - x1) + (y2 - y1) * (y2 - y1) + (z2 - z1) * (z2 - z1);
            let d2 = min(d, scratch[tmp + k]);
            scratch[tmp + k] = d2;

            if (x2 * x2 + y2 * y2 + z2 * z2 <= 1e-3) {
                continue;
            }
            if (d2 > best) {
                best = d2;
                besti = k;
            }
        }
        old = besti;
        idx[i * m + j] = i32(besti);
    }
}
`

// ballQueryShader runs the radius scan, one invocation per query point.
// idx is read_write so rows without a hit keep their previous contents.
const ballQueryShader = `
struct Params {
    b: u32,
    n: u32,
    m: u32,
    nsample: u32,
    radius2: f32,
}

@group(0) @binding(0) var<storage, read> new_xyz: array<f32>;
@group(0) @binding(1) var<storage, read> xyz: array<f32>;
@group(0) @binding(2) var<storage, read_write> idx: array<i32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let r = gid.y * nwg.x * 256u + gid.x;
    if (r >= params.b * params.m) {
        return;
    }
    let i = r / params.m;
    let n = params.n;
    let ns = params.nsample;
    let qx = new_xyz[r * 3u];
    let qy = new_xyz[r * 3u + 1u];
    let qz = new_xyz[r * 3u + 2u];
    let pts = i * n * 3u;
    let row = r * ns;

    var cnt = 0u;
    for (var k = 0u; k < n && cnt < ns; k = k + 1u) {
        let x = xyz[pts + k * 3u];
        let y = xyz[pts + k * 3u + 1u];
        let z = xyz[pts + k * 3u + 2u];
        let d2 = (qx - x) * (qx - x) + (qy - y) * (qy - y) + (qz - z) * (qz - z);
        if (d2 < params.radius2) {
            if (cnt == 0u) {
                for (var l = 0u; l < ns; l = l + 1u) {
                    idx[row + l] = i32(k);
                }
            }
            idx[row + cnt] = i32(k);
            cnt = cnt + 1u;
        }
    }
}
`

// gatherShader serves GatherPoints and GroupPoints: out (b, c, k) reads
// features (b, c, n) through a flat (b, k) index row. One invocation per
// output element.
const gatherShader = `
struct Params {
    b: u32,
    c: u32,
    n: u32,
    k: u32,
}

@group(0) @binding(0) var<storage, read> features: array<f32>;
@group(0) @binding(1) var<storage, read> idx: array<i32>;
@group(0) @binding(2) var<storage, read_write> out: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let e = gid.y * nwg.x * 256u + gid.x;
    let k = params.k;
    if (e >= params.b * params.c * k) {
        return;
    }
    let row = e / k;
    let j = e % k;
    let i = row / params.c;
    out[e] = features[row * params.n + u32(idx[i * k + j])];
}
`

// scatterAddShader serves the gather and group reverse kernels. One
// invocation owns one (batch, channel) destination row and walks its index
// row in order, so accumulation needs no atomics.
const scatterAddShader = `
struct Params {
    b: u32,
    c: u32,
    n: u32,
    k: u32,
}

@group(0) @binding(0) var<storage, read> grad_out: array<f32>;
@group(0) @binding(1) var<storage, read> idx: array<i32>;
@group(0) @binding(2) var<storage, read_write> grad_features: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let row = gid.y * nwg.x * 256u + gid.x;
    if (row >= params.b * params.c) {
        return;
    }
    let k = params.k;
    let i = row / params.c;
    let dst = row * params.n;
    for (var j = 0u; j < k; j = j + 1u) {
        let t = dst + u32(idx[i * k + j]);
        grad_features[t] = grad_features[t] + grad_out[row * k + j];
    }
}
`

// threeNNShader keeps a sorted top-3 per unknown point. Empty slots start at
// +Inf, passed in as raw bits since WGSL constants cannot be infinite.
const threeNNShader = `
struct Params {
    b: u32,
    n: u32,
    m: u32,
    inf_bits: u32,
}

@group(0) @binding(0) var<storage, read> unknown: array<f32>;
@group(0) @binding(1) var<storage, read> known: array<f32>;
@group(0) @binding(2) var<storage, read_write> dist2: array<f32>;
@group(0) @binding(3) var<storage, read_write> idx: array<i32>;
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let r = gid.y * nwg.x * 256u + gid.x;
    if (r >= params.b * params.n) {
        return;
    }
    let i = r / params.n;
    let m = params.m;
    let ux = unknown[r * 3u];
    let uy = unknown[r * 3u + 1u];
    let uz = unknown[r * 3u + 2u];
    let pts = i * m * 3u;

    let inf = bitcast<f32>(params.inf_bits);
    var best1 = inf;
    var best2 = inf;
    var best3 = inf;
    var besti1 = 0;
    var besti2 = 0;
    var besti3 = 0;
    for (var k = 0u; k < m; k = k + 1u) {
        let x = known[pts + k * 3u];
        let y = known[pts + k * 3u + 1u];
        let z = known[pts + k * 3u + 2u];
        let d = (ux - x) * (ux - x) + (uy - y) * (uy - y) + (uz - z) * (uz - z);
        if (d < best1) {
            best3 = best2;
            besti3 = besti2;
            best2 = best1;
            besti2 = besti1;
            best1 = d;
            besti1 = i32(k);
        } else if (d < best2) {
            best3 = best2;
            besti3 = besti2;
            best2 = d;
            besti2 = i32(k);
        } else if (d < best3) {
            best3 = d;
            besti3 = i32(k);
        }
    }
    dist2[r * 3u] = best1;
    dist2[r * 3u + 1u] = best2;
    dist2[r * 3u + 2u] = best3;
    idx[r * 3u] = besti1;
    idx[r * 3u + 1u] = besti2;
    idx[r * 3u + 2u] = besti3;
}
`

// interpolateShader blends three neighbour features, one invocation per
// output element of (b, c, n).
const interpolateShader = `
struct Params {
    b: u32,
    c: u32,
    m: u32,
    n: u32,
}

@group(0) @binding(0) var<storage, read> features: array<f32>;
@group(0) @binding(1) var<storage, read> idx: array<i32>;
@group(0) @binding(2) var<storage, read> weight: array<f32>;
@group(0) @binding(3) var<storage, read_write> out: array<f32>;
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let e = gid.y * nwg.x * 256u + gid.x;
    let n = params.n;
    if (e >= params.b * params.c * n) {
        return;
    }
    let row = e / n;
    let j = e % n;
    let i = row / params.c;
    let src = row * params.m;
    let t = (i * n + j) * 3u;
    out[e] = features[src + u32(idx[t])] * weight[t]
        + features[src + u32(idx[t + 1u])] * weight[t + 1u]
        + features[src + u32(idx[t + 2u])] * weight[t + 2u];
}
`

// interpolateGradShader scatters weighted gradients, one invocation per
// (batch, channel) destination row.
const interpolateGradShader = `
struct Params {
    b: u32,
    c: u32,
    m: u32,
    n: u32,
}

@group(0) @binding(0) var<storage, read> grad_out: array<f32>;
@group(0) @binding(1) var<storage, read> idx: array<i32>;
@group(0) @binding(2) var<storage, read> weight: array<f32>;
@group(0) @binding(3) var<storage, read_write> grad_features: array<f32>;
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let row = gid.y * nwg.x * 256u + gid.x;
    if (row >= params.b * params.c) {
        return;
    }
    let n = params.n;
    let i = row / params.c;
    let dst = row * params.m;
    for (var j = 0u; j < n; j = j + 1u) {
        let g = grad_out[row * n + j];
        let t = (i * n + j) * 3u;
        let a = dst + u32(idx[t]);
        grad_features[a] = grad_features[a] + g * weight[t];
        let b = dst + u32(idx[t + 1u]);
        grad_features[b] = grad_features[b] + g * weight[t + 1u];
        let c = dst + u32(idx[t + 2u]);
        grad_features[c] = grad_features[c] + g * weight[t + 2u];
    }
}
`
