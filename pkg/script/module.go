package script

import (
	"context"
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/vst3host/pkg/host"
)

// ModuleName is the name scripts require.
const ModuleName = "vst3"

// Module implements the vst3 Lua module for one script run.
type Module struct {
	ctx  context.Context
	host *host.Host

	sampleRate float64
	blockSize  int

	// handles loaded by this run and not yet unloaded
	owned map[host.Handle]struct{}
}

// NewModule creates a module bound to h. sampleRate and blockSize are the
// defaults initialize uses when a script omits them.
func NewModule(ctx context.Context, h *host.Host, sampleRate float64, blockSize int) *Module {
	return &Module{
		ctx:        ctx,
		host:       h,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		owned:      make(map[host.Handle]struct{}),
	}
}

// Register installs the module as a global and as a preloaded module.
func (m *Module) Register(L *lua.LState) {
	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(m.table(L))
		return 1
	})
	L.SetGlobal(ModuleName, m.table(L))
}

func (m *Module) table(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"loadPlugin":      m.loadPlugin,
		"unloadPlugin":    m.unloadPlugin,
		"initialize":      m.initialize,
		"setParameter":    m.setParameter,
		"getParameter":    m.getParameter,
		"process":         m.process,
		"automate":        m.automate,
		"parameters":      m.parameters,
		"info":            m.info,
		"handles":         m.handles,
		"classes":         m.classes,
		"activate":        m.lifecycle(m.host.Activate),
		"deactivate":      m.lifecycle(m.host.Deactivate),
		"startProcessing": m.lifecycle(m.host.StartProcessing),
		"stopProcessing":  m.lifecycle(m.host.StopProcessing),
	})
	L.SetField(mod, "sampleRate", lua.LNumber(m.sampleRate))
	L.SetField(mod, "blockSize", lua.LNumber(m.blockSize))
	return mod
}

// Owned returns the handles this run loaded and still holds.
func (m *Module) Owned() []host.Handle {
	out := make([]host.Handle, 0, len(m.owned))
	for h := range m.owned {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func checkHandle(L *lua.LState, n int) host.Handle {
	v := L.CheckNumber(n)
	if v < 0 || v > math.MaxUint32 || float64(v) != math.Trunc(float64(v)) {
		L.ArgError(n, "handle must be a non-negative integer")
	}
	return host.Handle(uint32(v))
}

func checkParamID(L *lua.LState, n int) uint32 {
	v := L.CheckNumber(n)
	if v < 0 || v > math.MaxUint32 {
		L.ArgError(n, "parameter id out of range")
	}
	return uint32(v)
}

// loadPlugin(path) -> handle
func (m *Module) loadPlugin(L *lua.LState) int {
	h, err := m.host.LoadPlugin(m.ctx, L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	m.owned[h] = struct{}{}
	L.Push(lua.LNumber(h))
	return 1
}

// unloadPlugin(handle)
func (m *Module) unloadPlugin(L *lua.LState) int {
	h := checkHandle(L, 1)
	if err := m.host.UnloadPlugin(m.ctx, h); err != nil {
		return raise(L, err)
	}
	delete(m.owned, h)
	return 0
}

// initialize(handle, [sampleRate], [maxBlockSize])
func (m *Module) initialize(L *lua.LState) int {
	h := checkHandle(L, 1)
	sr := float64(L.OptNumber(2, lua.LNumber(m.sampleRate)))
	block := L.OptInt(3, m.blockSize)
	if err := m.host.Initialize(m.ctx, h, sr, block); err != nil {
		return raise(L, err)
	}
	return 0
}

// setParameter(handle, id, value)
func (m *Module) setParameter(L *lua.LState) int {
	if err := m.host.SetParameter(checkHandle(L, 1), checkParamID(L, 2), float64(L.CheckNumber(3))); err != nil {
		return raise(L, err)
	}
	return 0
}

// getParameter(handle, id) -> number
func (m *Module) getParameter(L *lua.LState) int {
	v, err := m.host.GetParameter(checkHandle(L, 1), checkParamID(L, 2))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

// automate(handle, id, value, rampFrames)
func (m *Module) automate(L *lua.LState) int {
	frames := L.CheckInt(4)
	if err := m.host.AutomateParameter(checkHandle(L, 1), checkParamID(L, 2), float64(L.CheckNumber(3)), frames); err != nil {
		return raise(L, err)
	}
	return 0
}

// lifecycle wraps a state transition taking only a handle, as in
// activate(handle) or stopProcessing(handle).
func (m *Module) lifecycle(fn func(context.Context, host.Handle) error) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := fn(m.ctx, checkHandle(L, 1)); err != nil {
			return raise(L, err)
		}
		return 0
	}
}

// process(handle, inputs, numFrames) -> outputs
func (m *Module) process(L *lua.LState) int {
	h := checkHandle(L, 1)
	frames := L.CheckInt(3)
	if frames < 0 {
		L.ArgError(3, "numFrames must not be negative")
	}

	info, err := m.host.Info(h)
	if err != nil {
		return raise(L, err)
	}
	inputs := make([][]float32, info.InputChannels)
	for i := range inputs {
		inputs[i] = make([]float32, frames)
	}
	if tbl, ok := L.Get(2).(*lua.LTable); ok {
		readChannels(tbl, inputs)
	} else if L.Get(2) != lua.LNil {
		L.ArgError(2, "inputs must be a table of channels or nil")
	}
	outputs := make([][]float32, info.OutputChannels)
	for i := range outputs {
		outputs[i] = make([]float32, frames)
	}

	if err := m.host.Process(h, inputs, outputs, frames); err != nil {
		return raise(L, err)
	}
	L.Push(writeChannels(L, outputs))
	return 1
}

// parameters(handle) -> {{id=, title=, ...}, ...}
func (m *Module) parameters(L *lua.LState) int {
	params, err := m.host.Parameters(checkHandle(L, 1))
	if err != nil {
		return raise(L, err)
	}
	out := L.CreateTable(len(params), 0)
	for _, p := range params {
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(p.ID))
		t.RawSetString("title", lua.LString(p.Title))
		t.RawSetString("units", lua.LString(p.Units))
		t.RawSetString("stepCount", lua.LNumber(p.StepCount))
		t.RawSetString("default", lua.LNumber(p.Default))
		t.RawSetString("value", lua.LNumber(p.Value))
		t.RawSetString("plain", lua.LNumber(p.Plain))
		t.RawSetString("automate", lua.LBool(p.Automate))
		t.RawSetString("bypass", lua.LBool(p.Bypass))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

// info(handle) -> table
func (m *Module) info(L *lua.LState) int {
	info, err := m.host.Info(checkHandle(L, 1))
	if err != nil {
		return raise(L, err)
	}
	t := L.NewTable()
	t.RawSetString("handle", lua.LNumber(info.Handle))
	t.RawSetString("path", lua.LString(info.Path))
	t.RawSetString("class", lua.LString(info.Class))
	t.RawSetString("vendor", lua.LString(info.Vendor))
	t.RawSetString("state", lua.LString(info.State.String()))
	t.RawSetString("hasController", lua.LBool(info.Capabilities.HasController))
	t.RawSetString("inputs", lua.LNumber(info.InputChannels))
	t.RawSetString("outputs", lua.LNumber(info.OutputChannels))
	t.RawSetString("latency", lua.LNumber(info.Latency))
	if info.Setup != nil {
		t.RawSetString("sampleRate", lua.LNumber(info.Setup.SampleRate))
		t.RawSetString("blockSize", lua.LNumber(info.Setup.MaxBlockSize))
	}
	L.Push(t)
	return 1
}

// handles() -> {handle, ...}
func (m *Module) handles(L *lua.LState) int {
	hs := m.host.Handles()
	out := L.CreateTable(len(hs), 0)
	for _, h := range hs {
		out.Append(lua.LNumber(h))
	}
	L.Push(out)
	return 1
}

// classes(path) -> {{name=, category=}, ...}
func (m *Module) classes(L *lua.LState) int {
	classes, _, err := m.host.Classes(m.ctx, L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	out := L.CreateTable(len(classes), 0)
	for _, c := range classes {
		t := L.NewTable()
		t.RawSetString("name", lua.LString(c.Name))
		t.RawSetString("category", lua.LString(c.Category))
		t.RawSetString("id", lua.LString(c.ID.String()))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

// readChannels copies a Lua array of channel arrays into dst. Missing
// channels and samples stay zero.
func readChannels(tbl *lua.LTable, dst [][]float32) {
	for c := range dst {
		ch, ok := tbl.RawGetInt(c + 1).(*lua.LTable)
		if !ok {
			continue
		}
		n := min(ch.Len(), len(dst[c]))
		for i := 0; i < n; i++ {
			if v, ok := ch.RawGetInt(i + 1).(lua.LNumber); ok {
				dst[c][i] = float32(v)
			}
		}
	}
}

func writeChannels(L *lua.LState, src [][]float32) *lua.LTable {
	out := L.CreateTable(len(src), 0)
	for _, ch := range src {
		t := L.CreateTable(len(ch), 0)
		for _, v := range ch {
			t.Append(lua.LNumber(v))
		}
		out.Append(t)
	}
	return out
}
