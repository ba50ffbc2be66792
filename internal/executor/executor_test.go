package executor

import (
	"testing"

	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/internal/native/fake"
)

func twoPlatformEngine() *fake.Engine {
	return fake.New(
		fake.PlatformSpec{
			Name: "weak", Version: "OpenCL 1.2",
			Devices: []fake.DeviceSpec{
				{Name: "cpu0", Version: "OpenCL 1.2", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 2048},
			},
		},
		fake.PlatformSpec{
			Name: "strong", Version: "OpenCL 2.1",
			Devices: []fake.DeviceSpec{
				{Name: "gpu0", Version: "OpenCL 2.1", ComputeUnits: 20, ClockMHz: 1500, GlobalMemMiB: 8192, SVM: true, Pipes: true},
				{Name: "gpu1", Version: "OpenCL 2.1", ComputeUnits: 16, ClockMHz: 1200, GlobalMemMiB: 4096},
			},
		},
	)
}

func TestNewBestPlatformPicksHighestAggregateWeight(t *testing.T) {
	e := twoPlatformEngine()
	ex, err := New(e, BestPlatform)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ex.Close()

	if len(ex.Devices()) != 2 {
		t.Fatalf("expected the 'strong' platform's 2 devices, got %d", len(ex.Devices()))
	}
}

func TestNewBestPlatformTiesToFirstEnumerated(t *testing.T) {
	e := fake.New(
		fake.PlatformSpec{Name: "a", Version: "OpenCL 1.2", Devices: []fake.DeviceSpec{
			{Name: "d0", Version: "OpenCL 1.2", ComputeUnits: 8, ClockMHz: 1000, GlobalMemMiB: 1024},
		}},
		fake.PlatformSpec{Name: "b", Version: "OpenCL 1.2", Devices: []fake.DeviceSpec{
			{Name: "d1", Version: "OpenCL 1.2", ComputeUnits: 8, ClockMHz: 1000, GlobalMemMiB: 1024},
		}},
	)
	ex, err := New(e, BestPlatform)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ex.Close()

	platforms, _ := e.EnumeratePlatforms()
	firstPlatformDevices, _ := e.EnumerateDevices(platforms[0])
	if ex.Devices()[0].Pointer() != firstPlatformDevices[0] {
		t.Error("expected a weight tie to resolve to the first enumerated platform")
	}
}

func TestNewAllPlatformsUsesEveryDevice(t *testing.T) {
	e := twoPlatformEngine()
	ex, err := New(e, AllPlatforms)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ex.Close()

	if len(ex.Devices()) != 3 {
		t.Errorf("expected all 3 devices across both platforms, got %d", len(ex.Devices()))
	}
}

func TestWeightsMatchDeviceSpec(t *testing.T) {
	e := twoPlatformEngine()
	ex, err := New(e, AllPlatforms)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ex.Close()

	weights := ex.Weights()
	want := []uint64{
		Weight(4, 1000, 2048),
		Weight(20, 1500, 8192),
		Weight(16, 1200, 4096),
	}
	for i := range want {
		if weights[i] != want[i] {
			t.Errorf("Weight(%d) = %d, want %d", i, weights[i], want[i])
		}
	}
}

func TestNewUsesVersionGatedQueueCreation(t *testing.T) {
	e := fake.New(fake.PlatformSpec{
		Name: "mixed", Version: "OpenCL 2.1",
		Devices: []fake.DeviceSpec{
			{Name: "legacy", Version: "OpenCL 1.2", ComputeUnits: 4, ClockMHz: 800, GlobalMemMiB: 512},
			{Name: "modern", Version: "OpenCL 2.1", ComputeUnits: 4, ClockMHz: 800, GlobalMemMiB: 512},
		},
	})
	ex, err := New(e, AllPlatforms)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ex.Close()

	if usePropertiesPath(ex.Capabilities(0)) {
		t.Error("a 1.2 device should use the legacy queue-creation path")
	}
	if !usePropertiesPath(ex.Capabilities(1)) {
		t.Error("a 2.1 device should use the property-list queue-creation path")
	}
	for i, q := range ex.Queues() {
		if q == nil || q.Pointer() == native.Pointer(0) {
			t.Errorf("device %d: expected a non-nil queue handle", i)
		}
	}
}

func TestFromDevicesRequiresWithDevices(t *testing.T) {
	e := twoPlatformEngine()
	if _, err := New(e, FromDevices); err == nil {
		t.Error("expected an error when FromDevices is used without WithDevices")
	}
}

func TestCreateBufferAndCloseReleasesEverything(t *testing.T) {
	e := twoPlatformEngine()
	ex, err := New(e, BestPlatform)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf, err := ex.CreateBuffer(native.MemReadWrite, 256)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	buf.Release()
	ex.Close()
}
