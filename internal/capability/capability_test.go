package capability

import (
	"encoding/binary"
	"testing"

	"github.com/behrlich/goclx/internal/decode"
	"github.com/behrlich/goclx/internal/native"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"OpenCL 2.1", V2_1},
		{"OpenCL 1.2 NVIDIA CUDA 535.104.05", V1_2},
		{"OpenCL 3.0", V3_0},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSaturateTo3_0(t *testing.T) {
	v := Version{4, 2}
	if got := v.SaturateTo3_0(); got != V3_0 {
		t.Errorf("SaturateTo3_0() = %v, want %v", got, V3_0)
	}
}

func TestCompareTotalOrder(t *testing.T) {
	if V1_0.Compare(V2_0) >= 0 {
		t.Error("V1_0 should compare less than V2_0")
	}
	if !V2_1.AtLeast(V2_0) {
		t.Error("V2_1 should be at least V2_0")
	}
}

func boolBuf(v bool) []byte {
	b := make([]byte, 4)
	if v {
		binary.LittleEndian.PutUint32(b, 1)
	}
	return b
}

func TestFromDeviceInfo(t *testing.T) {
	raw := map[native.InfoKey][]byte{
		native.InfoDeviceVersion:                    []byte("OpenCL 2.0"),
		native.InfoDeviceSVMCapabilities:             boolBuf(true),
		native.InfoDevicePipeSupport:                 boolBuf(true),
		native.InfoDeviceNonUniformWorkGroupSupport:  boolBuf(true),
	}
	caps, err := FromDeviceInfo(raw, decode.Decoder{})
	if err != nil {
		t.Fatalf("FromDeviceInfo: %v", err)
	}
	if caps.Version != V2_0 {
		t.Errorf("Version = %v, want %v", caps.Version, V2_0)
	}
	if !caps.SharedVirtualMemory || !caps.Pipes || !caps.NonUniformWorkGroups {
		t.Errorf("expected all feature gates true for a 2.0 device advertising them: %+v", caps)
	}
}

func TestFromDeviceInfoPreOpenCL2NonUniformGated(t *testing.T) {
	raw := map[native.InfoKey][]byte{
		native.InfoDeviceVersion:                   []byte("OpenCL 1.2"),
		native.InfoDeviceNonUniformWorkGroupSupport: boolBuf(true),
	}
	caps, err := FromDeviceInfo(raw, decode.Decoder{})
	if err != nil {
		t.Fatalf("FromDeviceInfo: %v", err)
	}
	if caps.NonUniformWorkGroups {
		t.Error("non-uniform work groups require version >= 2.0 regardless of the raw flag")
	}
}
