package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"groupcam/internal/core/domain"
)

// ParseDeviceRanges expands a ranges string such as "0-9,15,20-25"
// into a sorted, de-duplicated device id pool.
func ParseDeviceRanges(ranges string) ([]domain.DeviceID, error) {
	seen := make(map[domain.DeviceID]struct{})
	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if idx := strings.Index(part, "-"); idx >= 0 {
			lo, hi = part[:idx], part[idx+1:]
		}

		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid device range %q: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid device range %q: %w", part, err)
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("invalid device range %q", part)
		}

		for i := start; i <= end; i++ {
			seen[domain.DeviceID(i)] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("device ranges %q expand to an empty pool", ranges)
	}

	pool := make([]domain.DeviceID, 0, len(seen))
	for id := range seen {
		pool = append(pool, id)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i] < pool[j] })
	return pool, nil
}

// FreeDevice returns the lowest pool id not taken by any camera, or
// ErrNoFreeDevice when the pool is exhausted.
func FreeDevice(pool []domain.DeviceID, cameras []*domain.Camera) (domain.DeviceID, error) {
	taken := make(map[domain.DeviceID]struct{}, len(cameras))
	for _, cam := range cameras {
		taken[cam.Device] = struct{}{}
	}
	for _, id := range pool {
		if _, ok := taken[id]; !ok {
			return id, nil
		}
	}
	return 0, domain.ErrNoFreeDevice
}
