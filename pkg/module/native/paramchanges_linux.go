//go:build linux

package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Host side IParameterChanges and IParamValueQueue. The vtables are shared
// by every instance; the object pointer the plugin passes back is the
// pinned Go struct itself.

var (
	vtablesOnce  sync.Once
	changesTable [6]uintptr
	queueTable   [7]uintptr
)

type changesObject struct {
	vtbl   uintptr
	src    *vst3.ParameterChanges
	queues []queueObject
}

type queueObject struct {
	vtbl  uintptr
	owner *changesObject
	index int32
}

func initVtables() {
	vtablesOnce.Do(func() {
		addRef := purego.NewCallback(func(this uintptr) uintptr { return 1 })
		release := purego.NewCallback(func(this uintptr) uintptr { return 1 })

		changesTable = [6]uintptr{
			purego.NewCallback(func(this, iid, out uintptr) uintptr {
				return queryBridge(this, iid, out, vst3.IIDIParameterChanges)
			}),
			addRef,
			release,
			purego.NewCallback(changesCount),
			purego.NewCallback(changesData),
			purego.NewCallback(changesAdd),
		}
		queueTable = [7]uintptr{
			purego.NewCallback(func(this, iid, out uintptr) uintptr {
				return queryBridge(this, iid, out, vst3.IIDIParamValueQueue)
			}),
			addRef,
			release,
			purego.NewCallback(queueID),
			purego.NewCallback(queuePointCount),
			purego.NewCallback(queuePoint),
			purego.NewCallback(queueAddPoint),
		}
	})
}

func resultCode(r vst3.Result) uintptr {
	return uintptr(uint32(r))
}

func queryBridge(this, iid, out uintptr, own vst3.TUID) uintptr {
	if out == 0 {
		return resultCode(vst3.ResultInvalidArgument)
	}
	id := *(*vst3.TUID)(unsafe.Pointer(iid))
	if id != own && id != vst3.IIDFUnknown {
		*(*uintptr)(unsafe.Pointer(out)) = 0
		return resultCode(vst3.ResultNoInterface)
	}
	*(*uintptr)(unsafe.Pointer(out)) = this
	return resultCode(vst3.ResultOK)
}

func changesOf(this uintptr) *changesObject {
	return (*changesObject)(unsafe.Pointer(this))
}

func queueOf(this uintptr) (*vst3.ParamValueQueue, bool) {
	q := (*queueObject)(unsafe.Pointer(this))
	if q.owner.src == nil {
		return nil, false
	}
	pq := q.owner.src.Queue(q.index)
	return pq, pq != nil
}

func changesCount(this uintptr) uintptr {
	c := changesOf(this)
	if c.src == nil {
		return 0
	}
	return uintptr(c.src.Count())
}

func changesData(this, index uintptr) uintptr {
	c := changesOf(this)
	i := int32(index)
	if c.src == nil || i < 0 || i >= c.src.Count() || int(i) >= len(c.queues) {
		return 0
	}
	return uintptr(unsafe.Pointer(&c.queues[i]))
}

// changesAdd refuses new queues: input changes are read-only to plugins.
func changesAdd(this, id, index uintptr) uintptr {
	if index != 0 {
		*(*int32)(unsafe.Pointer(index)) = -1
	}
	return 0
}

func queueID(this uintptr) uintptr {
	q, ok := queueOf(this)
	if !ok {
		return 0xFFFFFFFF
	}
	return uintptr(q.ID)
}

func queuePointCount(this uintptr) uintptr {
	q, ok := queueOf(this)
	if !ok {
		return 0
	}
	return uintptr(q.PointCount())
}

func queuePoint(this, index, offset, value uintptr) uintptr {
	q, ok := queueOf(this)
	if !ok || offset == 0 || value == 0 {
		return resultCode(vst3.ResultInvalidArgument)
	}
	pt, ok := q.Point(int32(index))
	if !ok {
		return resultCode(vst3.ResultInvalidArgument)
	}
	*(*int32)(unsafe.Pointer(offset)) = pt.Offset
	*(*float64)(unsafe.Pointer(value)) = pt.Value
	return resultCode(vst3.ResultOK)
}

// queueAddPoint takes (this, sampleOffset, value, index). The double goes
// in a floating point register, so the integer arguments arrive in order
// without it.
func queueAddPoint(this, offset, index uintptr) uintptr {
	if index != 0 {
		*(*int32)(unsafe.Pointer(index)) = -1
	}
	return resultCode(vst3.ResultFalse)
}

// paramChanges is the pinned COM view of a vst3.ParameterChanges.
type paramChanges struct {
	obj    *changesObject
	pinner runtime.Pinner
}

func newParamChanges(capacity int) *paramChanges {
	initVtables()
	obj := &changesObject{
		vtbl:   uintptr(unsafe.Pointer(&changesTable)),
		queues: make([]queueObject, max(capacity, 1)),
	}
	for i := range obj.queues {
		obj.queues[i] = queueObject{vtbl: uintptr(unsafe.Pointer(&queueTable)), owner: obj, index: int32(i)}
	}
	p := &paramChanges{obj: obj}
	p.pinner.Pin(obj)
	p.pinner.Pin(&obj.queues[0])
	return p
}

// bind points the object at src for the next block and returns the
// pointer to hand to the plugin.
func (p *paramChanges) bind(src *vst3.ParameterChanges) uintptr {
	p.obj.src = src
	if src == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(p.obj))
}

func (p *paramChanges) close() {
	p.obj.src = nil
	p.pinner.Unpin()
}
