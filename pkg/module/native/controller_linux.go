//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// IEditController slots.
const (
	slotControllerInitialize   = 3
	slotControllerTerminate    = 4
	slotGetParameterCount      = 8
	slotGetParameterInfo       = 9
	slotNormalizedParamToPlain = 12
	slotPlainParamToNormalized = 13
	slotGetParamNormalized     = 14
	slotSetParamNormalized     = 15
)

// controller adapts an IEditController. Methods with double arguments or
// results go through functions registered against the plugin's vtable.
type controller struct {
	obj object
	// separate is set for controllers created from their own class, which
	// the host initializes and terminates itself.
	separate bool

	getParamNormalized     func(this uintptr, id uint32) float64
	setParamNormalized     func(this uintptr, id uint32, value float64) int32
	normalizedParamToPlain func(this uintptr, id uint32, value float64) float64
	plainParamToNormalized func(this uintptr, id uint32, value float64) float64
}

func newController(obj object, separate bool) *controller {
	c := &controller{obj: obj, separate: separate}
	obj.register(&c.getParamNormalized, slotGetParamNormalized)
	obj.register(&c.setParamNormalized, slotSetParamNormalized)
	obj.register(&c.normalizedParamToPlain, slotNormalizedParamToPlain)
	obj.register(&c.plainParamToNormalized, slotPlainParamToNormalized)
	return c
}

func (c *controller) Initialize(context interface{}) error {
	if !c.separate {
		return nil
	}
	return c.obj.result(slotControllerInitialize, 0)
}

func (c *controller) Terminate() error {
	if !c.separate {
		return nil
	}
	return c.obj.result(slotControllerTerminate)
}

func (c *controller) ParameterCount() int32 {
	return int32(c.obj.call(slotGetParameterCount))
}

func (c *controller) ParameterInfo(index int32) (vst3.ParameterInfo, error) {
	buf := make([]byte, sizeParameterInfo)
	err := c.obj.result(slotGetParameterInfo, uintptr(index), uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if err != nil {
		return vst3.ParameterInfo{}, err
	}
	return decodeParameterInfo(buf), nil
}

func (c *controller) ParamNormalized(id vst3.ParamID) float64 {
	return c.getParamNormalized(uintptr(c.obj), id)
}

func (c *controller) SetParamNormalized(id vst3.ParamID, value float64) error {
	return vst3.Result(c.setParamNormalized(uintptr(c.obj), id, value)).Err()
}

func (c *controller) NormalizedToPlain(id vst3.ParamID, normalized float64) float64 {
	return c.normalizedParamToPlain(uintptr(c.obj), id, normalized)
}

func (c *controller) PlainToNormalized(id vst3.ParamID, plain float64) float64 {
	return c.plainParamToNormalized(uintptr(c.obj), id, plain)
}

func (c *controller) Release() {
	c.obj.release()
	c.obj = 0
}
