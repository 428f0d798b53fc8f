// Package battery reads charge counters from power-supply status directories.
package battery

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/battwarn/internal/errors"
)

// Reader reads levels from the filesystem. The zero value is ready to use.
type Reader struct{}

var _ LevelReader = Reader{}

// ReadLevel implements LevelReader.
func (Reader) ReadLevel(path string) (float64, error) {
	return ReadLevel(path)
}

// ReadLevel returns energy_now/energy_full for the status directory at path.
// Both files are read on every call.
func ReadLevel(path string) (float64, error) {
	now, err := readInt(filepath.Join(path, energyNowFile))
	if err != nil {
		return 0, err
	}

	full, err := readInt(filepath.Join(path, energyFullFile))
	if err != nil {
		return 0, err
	}

	if full == 0 {
		return 0, errors.New().
			WithMessage(ErrZeroFullEnergy, "battery reports zero full energy").
			WithData(filepath.Join(path, energyFullFile))
	}

	return float64(now) / float64(full), nil
}

func readInt(file string) (int64, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(file)
	if err != nil {
		return 0, errFactory.Wrap(ErrResourceUnavailable, err).WithMessage("battery status unavailable").WithData(file)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrParseFailed, err).WithMessage("invalid battery counter").WithData(file)
	}

	return value, nil
}

// Identifier derives a battery identifier from its status directory path.
// "/sys/class/power_supply/BAT0" and "/sys/class/power_supply/BAT0/" both
// yield "BAT0". A path without any named segment yields "".
func Identifier(path string) string {
	if path == "" {
		return ""
	}

	base := filepath.Base(path)
	if base == string(filepath.Separator) {
		return ""
	}

	return base
}

// Describe builds descriptors for paths, preserving their order.
func Describe(paths []string) []Descriptor {
	descriptors := make([]Descriptor, 0, len(paths))
	for _, p := range paths {
		descriptors = append(descriptors, Descriptor{
			ID:   Identifier(p),
			Path: p,
		})
	}

	return descriptors
}
