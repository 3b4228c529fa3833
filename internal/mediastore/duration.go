package mediastore

import (
	"fmt"
	"io"

	"github.com/abema/go-mp4"
)

// readDuration читает длительность из ISO-BMFF (mp4, mov, m4v).
// Для остальных контейнеров возвращает nil. Позицию r не восстанавливает.
func readDuration(r io.ReadSeeker, format string) (*float64, error) {
	switch format {
	case "mp4", "mov", "m4v":
	default:
		return nil, nil
	}

	info, err := mp4.Probe(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора ISO-BMFF: %w", err)
	}
	if info.Timescale == 0 {
		return nil, nil
	}

	d := float64(info.Duration) / float64(info.Timescale)
	return &d, nil
}
