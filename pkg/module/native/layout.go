package native

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Sizes of the C structures read from plugins on 64-bit platforms.
const (
	sizeString128     = 128 * 2
	sizeFactoryInfo   = 64 + 256 + 128 + 4
	sizeClassInfo     = 16 + 4 + 32 + 64
	sizeParameterInfo = 792
	sizeBusInfo       = 276
)

var le = binary.LittleEndian

// cString decodes a NUL terminated char8 array.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// utf16String decodes a NUL terminated little-endian char16 array.
func utf16String(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := le.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

func decodeFactoryInfo(b []byte) vst3.FactoryInfo {
	return vst3.FactoryInfo{
		Vendor: cString(b[0:64]),
		URL:    cString(b[64:320]),
		Email:  cString(b[320:448]),
		Flags:  int32(le.Uint32(b[448:])),
	}
}

func decodeClassInfo(b []byte) vst3.ClassInfo {
	var info vst3.ClassInfo
	copy(info.ID[:], b[0:16])
	info.Cardinality = int32(le.Uint32(b[16:]))
	info.Category = cString(b[20:52])
	info.Name = cString(b[52:116])
	return info
}

func decodeParameterInfo(b []byte) vst3.ParameterInfo {
	return vst3.ParameterInfo{
		ID:           le.Uint32(b[0:]),
		Title:        utf16String(b[4 : 4+sizeString128]),
		ShortTitle:   utf16String(b[4+sizeString128 : 4+2*sizeString128]),
		Units:        utf16String(b[4+2*sizeString128 : 4+3*sizeString128]),
		StepCount:    int32(le.Uint32(b[772:])),
		DefaultValue: math.Float64frombits(le.Uint64(b[776:])),
		UnitID:       int32(le.Uint32(b[784:])),
		Flags:        int32(le.Uint32(b[788:])),
	}
}

func decodeBusInfo(b []byte) vst3.BusInfo {
	return vst3.BusInfo{
		MediaType:    vst3.MediaType(le.Uint32(b[0:])),
		Direction:    vst3.BusDirection(le.Uint32(b[4:])),
		ChannelCount: int32(le.Uint32(b[8:])),
		Name:         utf16String(b[12 : 12+sizeString128]),
		BusType:      vst3.BusType(le.Uint32(b[268:])),
		Flags:        le.Uint32(b[272:]),
	}
}
