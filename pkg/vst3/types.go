// Package vst3 models the parts of the VST3 API a host talks to: interface
// IDs, result codes, setup and process structures, and the capability
// interfaces a loaded plugin class exposes.
package vst3

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// TUID is a 16 byte class or interface identifier in non-COM byte order.
type TUID [16]byte

// InlineUID builds a TUID from the four 32-bit words used in SDK headers.
func InlineUID(l1, l2, l3, l4 uint32) TUID {
	var t TUID
	binary.BigEndian.PutUint32(t[0:4], l1)
	binary.BigEndian.PutUint32(t[4:8], l2)
	binary.BigEndian.PutUint32(t[8:12], l3)
	binary.BigEndian.PutUint32(t[12:16], l4)
	return t
}

// ParseTUID parses 32 hex digits, with or without dashes.
func ParseTUID(s string) (TUID, error) {
	var t TUID
	clean := strings.ReplaceAll(s, "-", "")
	if len(clean) != 32 {
		return t, fmt.Errorf("vst3: invalid uid %q", s)
	}
	if _, err := hex.Decode(t[:], []byte(clean)); err != nil {
		return t, fmt.Errorf("vst3: invalid uid %q: %w", s, err)
	}
	return t, nil
}

func (t TUID) String() string {
	return strings.ToUpper(hex.EncodeToString(t[:]))
}

// IsZero reports whether the identifier is unset.
func (t TUID) IsZero() bool {
	return t == TUID{}
}

// Interface IDs
var (
	IIDFUnknown          = InlineUID(0x00000000, 0x00000000, 0xC0000000, 0x00000046)
	IIDIPluginBase       = InlineUID(0x22888DDB, 0x156E45AE, 0x8358B348, 0x08190625)
	IIDIPluginFactory    = InlineUID(0x7A4D811C, 0x52114A1F, 0xAED9D2EE, 0x0B43BF9F)
	IIDIComponent        = InlineUID(0xE831FF31, 0xF2D54301, 0x928EBBEE, 0x25697802)
	IIDIAudioProcessor   = InlineUID(0x42043F99, 0xB7DA453C, 0xA569E79D, 0x9AAEC33D)
	IIDIEditController   = InlineUID(0xDCD7BBE3, 0x7742448D, 0xA874AACC, 0x979C759E)
	IIDIParameterChanges = InlineUID(0xA4779663, 0x0BB64A56, 0xB44384A8, 0x466FEB9D)
	IIDIParamValueQueue  = InlineUID(0x01263A18, 0xED074F6F, 0x98C9D356, 0x4686F9BA)
)

// Class categories
const (
	CategoryAudioEffect = "Audio Module Class"
	CategoryController  = "Component Controller Class"
)

// Result mirrors tresult for the non-COM platforms.
type Result int32

const (
	ResultOK              Result = 0
	ResultTrue            Result = 0
	ResultFalse           Result = 1
	ResultInvalidArgument Result = 2
	ResultNotImplemented  Result = 3
	ResultInternalError   Result = 4
	ResultNotInitialized  Result = 5
	ResultOutOfMemory     Result = 6
	ResultNoInterface     Result = -1
)

func (r Result) Error() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultFalse:
		return "false"
	case ResultInvalidArgument:
		return "invalid argument"
	case ResultNotImplemented:
		return "not implemented"
	case ResultInternalError:
		return "internal error"
	case ResultNotInitialized:
		return "not initialized"
	case ResultOutOfMemory:
		return "out of memory"
	case ResultNoInterface:
		return "no interface"
	default:
		return fmt.Sprintf("tresult %d", int32(r))
	}
}

// Err returns nil for ResultOK and the result itself otherwise.
func (r Result) Err() error {
	if r == ResultOK {
		return nil
	}
	return r
}

// FactoryInfo describes the vendor of a plugin module.
type FactoryInfo struct {
	Vendor string
	URL    string
	Email  string
	Flags  int32
}

// ClassInfo describes one class exported by a factory.
type ClassInfo struct {
	ID          TUID
	Cardinality int32
	Category    string
	Name        string
}

// IsAudioModule reports whether the class is a processing component.
func (c ClassInfo) IsAudioModule() bool {
	return c.Category == CategoryAudioEffect
}
