// Package kernels bundles the WGSL compute kernels shipped with kernelrun.
// Each kernel reads its inputs from @group(0) in binding order and writes
// its result to @group(1) @binding(0).
package kernels

import _ "embed"

// Identity copies an f32 array to the output. Workgroup size 256.
//
//go:embed identity.wgsl
var Identity string

// IdentityWorkgroupSize is the @workgroup_size of Identity.
const IdentityWorkgroupSize = 256

// MatMulByRow multiplies two row-major f32 matrices, one invocation per
// output row. Inputs: a, [a.width], b, [b.width].
//
//go:embed mmul_by_row.wgsl
var MatMulByRow string

// MatMulByCol is MatMulByRow with one invocation per output column.
//
//go:embed mmul_by_col.wgsl
var MatMulByCol string

// MatMulWorkgroupSize is the @workgroup_size of both matmul kernels.
const MatMulWorkgroupSize = 32
