package cafe

import (
	"fmt"
	"math"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// Validate checks a single record.
func (c Cafe) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: cafe %q has an empty id", errors.ErrInvalidInput, c.Name)
	case math.IsNaN(c.Rating) || c.Rating < 0 || c.Rating > 5:
		return fmt.Errorf("%w: cafe %s: rating %.2f outside [0,5]", errors.ErrInvalidInput, c.ID, c.Rating)
	case c.ReviewCount < 0:
		return fmt.Errorf("%w: cafe %s: negative review count", errors.ErrInvalidInput, c.ID)
	case c.WifiSpeedMbps < 0:
		return fmt.Errorf("%w: cafe %s: negative wifi speed", errors.ErrInvalidInput, c.ID)
	case c.CurrentOccupancy < 0:
		return fmt.Errorf("%w: cafe %s: negative occupancy", errors.ErrInvalidInput, c.ID)
	case c.OnSiteProfessionals < 0:
		return fmt.Errorf("%w: cafe %s: negative professional count", errors.ErrInvalidInput, c.ID)
	case !c.PriceLevel.Valid():
		return fmt.Errorf("%w: cafe %s: unknown price level %q", errors.ErrInvalidInput, c.ID, c.PriceLevel)
	case !c.NoiseLevel.Valid():
		return fmt.Errorf("%w: cafe %s: unknown noise level %q", errors.ErrInvalidInput, c.ID, c.NoiseLevel)
	}
	return nil
}

// Validate checks every record and that identifiers are unique.
func Validate(cafes []Cafe) error {
	seen := make(map[string]struct{}, len(cafes))
	for _, c := range cafes {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate cafe id %s", errors.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
