// Package cache implements C6 Program Cache: building a program from
// source, and the binary-cache-or-source-fallback path spec.md §4.6
// describes. artifactPath's deterministic naming follows the teacher's
// own "derive a stable on-disk name from IDs" idiom
// (fmt.Sprintf("/dev/ublkb%d", devID) in backend.go).
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/behrlich/goclx/internal/constants"
	"github.com/behrlich/goclx/internal/decode"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/logging"
	"github.com/behrlich/goclx/internal/native"
)

// Cache builds programs and, optionally, persists/loads their compiled
// binaries to a folder on disk.
type Cache struct {
	api    native.API
	logger *logging.Logger
}

// New constructs a Cache driving api. A nil logger is valid; Warn-level
// messages about swallowed persistence failures are simply dropped.
func New(api native.API, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Cache{api: api, logger: logger}
}

// BuildFromSource creates a program from src and builds it for every
// device; on failure the error carries the first non-empty device build
// log, and the other devices' logs are not included (spec.md §4.6:
// "a failed build reports the build log of the first failing device").
func (c *Cache) BuildFromSource(ctx *handle.Handle, devices []*handle.Handle, src, options string) (*handle.Handle, error) {
	program, err := c.api.CreateProgramWithSource(ctx.Pointer(), src)
	if err != nil {
		return nil, fmt.Errorf("cache: create program with source: %w", err)
	}
	nativeDevices := toNativeDevices(devices)
	if err := c.api.BuildProgram(program, nativeDevices, options); err != nil {
		return nil, c.buildFailure(program, devices, err)
	}
	return handle.Wrap(c.api, handle.KindProgram, program), nil
}

// CompileOrBinary implements spec.md §4.6's cache lookup: if a binary
// artifact already exists for every device under binaryFolder, it is
// loaded via CreateProgramWithBinary; otherwise sourcePath is compiled
// fresh via BuildFromSource and, on success, persisted back to
// binaryFolder for next time. Persistence failure after a successful
// source build is swallowed exactly as the teacher swallows Close()
// failures: logged at Warn, never returned.
func (c *Cache) CompileOrBinary(ctx *handle.Handle, devices []*handle.Handle, sourcePath, binaryFolder, options string) (*handle.Handle, error) {
	var dec decode.Decoder
	names := make([]string, len(devices))
	for i, d := range devices {
		name, err := deviceName(c.api, dec, d.Pointer())
		if err != nil {
			return nil, err
		}
		names[i] = name
	}

	binaries := make([][]byte, len(devices))
	allPresent := binaryFolder != ""
	for i, name := range names {
		path := artifactPath(binaryFolder, stem(sourcePath), name, i)
		data, err := os.ReadFile(path)
		if err != nil {
			allPresent = false
			break
		}
		binaries[i] = data
	}

	if allPresent {
		program, err := c.api.CreateProgramWithBinary(ctx.Pointer(), toNativeDevices(devices), binaries)
		if err == nil {
			if err := c.api.BuildProgram(program, toNativeDevices(devices), options); err == nil {
				return handle.Wrap(c.api, handle.KindProgram, program), nil
			}
		}
		c.logger.Warnf("cache: cached binary for %q failed to load, falling back to source: %v", sourcePath, err)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("cache: read source %q: %w", sourcePath, err)
	}
	program, err := c.BuildFromSource(ctx, devices, string(src), options)
	if err != nil {
		return nil, err
	}

	if binaryFolder != "" {
		c.persist(program, devices, names, sourcePath, binaryFolder)
	}
	return program, nil
}

func (c *Cache) persist(program *handle.Handle, devices []*handle.Handle, names []string, sourcePath, binaryFolder string) {
	sizes, err := c.api.ProgramBinarySizes(program.Pointer(), toNativeDevices(devices))
	if err != nil {
		c.logger.Warnf("cache: query binary sizes for %q: %v", sourcePath, err)
		return
	}
	binaries, err := c.api.ProgramBinaries(program.Pointer(), toNativeDevices(devices), sizes)
	if err != nil {
		c.logger.Warnf("cache: read binaries for %q: %v", sourcePath, err)
		return
	}
	if err := os.MkdirAll(binaryFolder, 0o755); err != nil {
		c.logger.Warnf("cache: create binary folder %q: %v", binaryFolder, err)
		return
	}
	for i, bin := range binaries {
		path := artifactPath(binaryFolder, stem(sourcePath), names[i], i)
		if err := os.WriteFile(path, bin, 0o644); err != nil {
			c.logger.Warnf("cache: write binary artifact %q: %v", path, err)
		}
	}
}

func (c *Cache) buildFailure(program native.Program, devices []*handle.Handle, cause error) error {
	for _, d := range devices {
		log, err := c.api.BuildLog(program, d.Pointer())
		if err == nil && strings.TrimSpace(log) != "" {
			return fmt.Errorf("cache: build failed: %w: %s", cause, log)
		}
	}
	return fmt.Errorf("cache: build failed: %w", cause)
}

func toNativeDevices(devices []*handle.Handle) []native.Device {
	out := make([]native.Device, len(devices))
	for i, d := range devices {
		out[i] = d.Pointer()
	}
	return out
}

func deviceName(api native.API, dec decode.Decoder, d native.Device) (string, error) {
	buf, err := api.DeviceInfo(d, native.InfoDeviceName)
	if err != nil {
		return "", fmt.Errorf("cache: device name: %w", err)
	}
	name, err := dec.String(buf)
	if err != nil {
		return "", err
	}
	return name, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// artifactPath builds "<folder>/<stem>_<device_name>_<index>.bin", with
// spaces in deviceName underscored, per spec.md §4.6.
func artifactPath(folder, stem, deviceName string, index int) string {
	safeName := strings.ReplaceAll(deviceName, " ", "_")
	return filepath.Join(folder, fmt.Sprintf("%s_%s_%d%s", stem, safeName, index, constants.ArtifactExtension))
}
