//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// FUnknown vtable slots.
const (
	slotQueryInterface = 0
	slotAddRef         = 1
	slotRelease        = 2
)

// object is a pointer to a COM object: its first word points to the vtable.
type object uintptr

// method returns the function pointer in vtable slot i.
func (o object) method(i int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(o))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(i)*unsafe.Sizeof(uintptr(0))))
}

// call invokes slot i with integer and pointer arguments.
func (o object) call(i int, args ...uintptr) uintptr {
	r, _, _ := purego.SyscallN(o.method(i), append([]uintptr{uintptr(o)}, args...)...)
	return r
}

// result invokes slot i and converts its tresult.
func (o object) result(i int, args ...uintptr) error {
	return vst3.Result(int32(o.call(i, args...))).Err()
}

func (o object) queryInterface(iid vst3.TUID) (object, error) {
	id, out := new(vst3.TUID), new(uintptr)
	*id = iid
	err := o.result(slotQueryInterface, uintptr(unsafe.Pointer(id)), uintptr(unsafe.Pointer(out)))
	runtime.KeepAlive(id)
	runtime.KeepAlive(out)
	if err != nil {
		return 0, err
	}
	if *out == 0 {
		return 0, vst3.ResultNoInterface
	}
	return object(*out), nil
}

func (o object) addRef() uint32 {
	return uint32(o.call(slotAddRef))
}

func (o object) release() uint32 {
	if o == 0 {
		return 0
	}
	return uint32(o.call(slotRelease))
}

// same reports whether a and b are the same object, by comparing their
// FUnknown identities.
func same(a, b object) bool {
	ua, err := a.queryInterface(vst3.IIDFUnknown)
	if err != nil {
		return false
	}
	defer ua.release()
	ub, err := b.queryInterface(vst3.IIDFUnknown)
	if err != nil {
		return false
	}
	defer ub.release()
	return ua == ub
}

// register binds fn to slot i of o, for methods that take or return
// floating point values.
func (o object) register(fn interface{}, i int) {
	purego.RegisterFunc(fn, o.method(i))
}

func boolArg(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}
