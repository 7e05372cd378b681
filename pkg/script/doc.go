// Package script runs Lua scripts against a host.Host.
//
// Scripts get a "vst3" module, available both as a global and through
// require("vst3"):
//
//	local h = vst3.loadPlugin("/plugins/synth.vst3")
//	vst3.initialize(h, 48000, 512)
//	vst3.setParameter(h, 0, 0.8)
//	local out = vst3.process(h, nil, 512)
//	vst3.unloadPlugin(h)
//
// stopProcessing, deactivate, activate and startProcessing move an
// initialized plugin between the configured and active states.
//
// Audio buffers are arrays of channels, each an array of samples, and are
// copied in both directions. Host errors are raised as Lua errors whose
// message names the error kind, for example "(not_found)".
//
// Only the base, table, string and math libraries are opened.
package script
