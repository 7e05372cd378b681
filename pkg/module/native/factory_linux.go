//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// IPluginFactory slots.
const (
	slotGetFactoryInfo = 3
	slotCountClasses   = 4
	slotGetClassInfo   = 5
	slotCreateInstance = 6
)

type factory struct {
	obj object
}

func (f *factory) Info() vst3.FactoryInfo {
	buf := make([]byte, sizeFactoryInfo)
	err := f.obj.result(slotGetFactoryInfo, uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if err != nil {
		return vst3.FactoryInfo{}
	}
	return decodeFactoryInfo(buf)
}

func (f *factory) CountClasses() int32 {
	return int32(f.obj.call(slotCountClasses))
}

func (f *factory) ClassInfo(index int32) (vst3.ClassInfo, error) {
	buf := make([]byte, sizeClassInfo)
	err := f.obj.result(slotGetClassInfo, uintptr(index), uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if err != nil {
		return vst3.ClassInfo{}, err
	}
	return decodeClassInfo(buf), nil
}

func (f *factory) createInstance(cid, iid vst3.TUID) (object, error) {
	ids := new([2]vst3.TUID)
	ids[0], ids[1] = cid, iid
	out := new(uintptr)
	err := f.obj.result(slotCreateInstance,
		uintptr(unsafe.Pointer(&ids[0])), uintptr(unsafe.Pointer(&ids[1])), uintptr(unsafe.Pointer(out)))
	runtime.KeepAlive(ids)
	runtime.KeepAlive(out)
	if err != nil {
		return 0, err
	}
	if *out == 0 {
		return 0, vst3.ResultNoInterface
	}
	return object(*out), nil
}

func (f *factory) CreateComponent(cid vst3.TUID) (vst3.Component, error) {
	obj, err := f.createInstance(cid, vst3.IIDIComponent)
	if err != nil {
		return nil, err
	}
	return newComponent(obj), nil
}

func (f *factory) CreateController(cid vst3.TUID) (vst3.EditController, error) {
	obj, err := f.createInstance(cid, vst3.IIDIEditController)
	if err != nil {
		return nil, err
	}
	return newController(obj, true), nil
}
