package editor

import (
	"math"
	"os"

	"github.com/go-logr/logr"
	"github.com/henderiw/arcring/pkg/resolver"
	"github.com/henderiw/arcring/pkg/ring"
	"github.com/henderiw/arcring/pkg/valuespace"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid editor config")

// Config holds everything an Editor needs at construction. Values are in
// value-space units unless noted otherwise.
type Config struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Rounds int     `yaml:"rounds"`
	// MinSeparation is the smallest gap allowed between two boundaries.
	MinSeparation float64 `yaml:"min_separation"`
	// SplitThreshold is the shortest arc a long press may split.
	SplitThreshold float64 `yaml:"split_threshold"`
	// SplitUnit and SplitHalfWidth size the gap carved out by a split:
	// the gap is midpoint +/- SplitUnit*SplitHalfWidth.
	SplitUnit      float64 `yaml:"split_unit"`
	SplitHalfWidth float64 `yaml:"split_half_width"`
	// ThumbTolerance is the hit radius of BeginDragAt, in degrees.
	ThumbTolerance float64           `yaml:"thumb_tolerance"`
	Initial        ring.Range        `yaml:"initial"`
	Labels         map[string]string `yaml:"labels,omitempty"`
}

// DefaultConfig returns a 24 hour clock counted in seconds, with an initial
// range from 1:00 to 8:00.
func DefaultConfig() Config {
	return Config{
		Min:            0,
		Max:            24 * 60 * 60,
		Rounds:         1,
		MinSeparation:  60 * 60,
		SplitThreshold: 3 * 60 * 60,
		SplitUnit:      60,
		SplitHalfWidth: 30,
		ThumbTolerance: 15,
		Initial:        ring.Range{Start: 60 * 60, End: 8 * 60 * 60},
	}
}

// SplitGap returns half the width of the gap a split carves out.
func (c Config) SplitGap() float64 {
	return c.SplitUnit * c.SplitHalfWidth
}

func (c Config) Validate() error {
	space, err := valuespace.New(c.Min, c.Max, c.Rounds)
	if err != nil {
		return err
	}
	if _, err := resolver.New(space, c.MinSeparation, logr.Discard()); err != nil {
		return err
	}
	if !(c.SplitThreshold > 0) {
		return errors.Wrapf(ErrInvalidConfig, "split threshold must be positive, got %v", c.SplitThreshold)
	}
	if !(c.SplitUnit > 0) || !(c.SplitHalfWidth > 0) {
		return errors.Wrapf(ErrInvalidConfig, "split unit %v and half width %v must be positive", c.SplitUnit, c.SplitHalfWidth)
	}
	if 2*c.SplitGap() >= c.SplitThreshold {
		return errors.Wrapf(ErrInvalidConfig, "split gap %v does not fit in split threshold %v", 2*c.SplitGap(), c.SplitThreshold)
	}
	// the shortest splittable arc must leave two halves of at least the
	// minimum separation around the gap
	if c.SplitThreshold < 2*c.SplitGap()+2*c.MinSeparation {
		return errors.Wrapf(ErrInvalidConfig, "split threshold %v leaves halves shorter than the minimum separation %v around a gap of %v",
			c.SplitThreshold, c.MinSeparation, 2*c.SplitGap())
	}
	if !(c.ThumbTolerance > 0) || c.ThumbTolerance > 180 {
		return errors.Wrapf(ErrInvalidConfig, "thumb tolerance must be in (0, 180] degrees, got %v", c.ThumbTolerance)
	}
	if math.IsNaN(c.Initial.Start) || math.IsInf(c.Initial.Start, 0) ||
		math.IsNaN(c.Initial.End) || math.IsInf(c.Initial.End, 0) {
		return errors.Wrapf(ErrInvalidConfig, "initial range %s is not finite", c.Initial)
	}
	if l := space.Length(c.Initial.Start, c.Initial.End); l < c.MinSeparation {
		return errors.Wrapf(ErrInvalidConfig, "initial range %s is shorter than the minimum separation %v", c.Initial, c.MinSeparation)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig, so a document only needs the
// fields it changes, and validates the result.
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "cannot parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. An empty path yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read config %s", path)
	}
	return ParseConfig(b)
}
