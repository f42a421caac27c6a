// Package preset loads named transition presets from an optional
// transitions.yaml file, so applications can tune durations, curves
// and keyframes without recompiling.
//
// A preset file looks like:
//
//	format: v1
//	transitions:
//	  fade-in:
//	    duration: 250ms
//	    curve: ease-out
//	  pulse:
//	    duration: 1s
//	    curve: [0.4, 0.0, 0.2, 1.0]
//	    keyframes:
//	      - {offset: 0.0, value: 1.0}
//	      - {offset: 0.5, value: 1.2}
//	      - {offset: 1.0, value: 1.0}
//	  alert:
//	    duration: 400ms
//	    curve: linear
//	    keyframes:
//	      - {offset: 0.0, color: white}
//	      - {offset: 1.0, color: crimson}
package preset

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/colornames"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/reactive/pkg/animation"
)

// Format is the preset file format this package reads. Files declaring
// a different major version are rejected.
const Format = "v1"

// FileName is the conventional preset file name.
const FileName = "transitions.yaml"

// Preset is a resolved transition: a duration, a curve and optionally
// scalar or color keyframes.
type Preset struct {
	Name      string
	Duration  time.Duration
	Curve     animation.Curve
	Keys      []animation.Key[float64]
	ColorKeys []animation.Key[color.RGBA]
}

// Library holds the presets resolved from one file.
type Library struct {
	presets map[string]Preset
}

type fileSpec struct {
	Format      string                    `yaml:"format,omitempty"`
	Transitions map[string]transitionSpec `yaml:"transitions"`
}

type transitionSpec struct {
	Duration  durationSpec   `yaml:"duration"`
	Curve     curveSpec      `yaml:"curve,omitempty"`
	Keyframes []keyframeSpec `yaml:"keyframes,omitempty"`
}

// durationSpec accepts Go duration strings ("250ms") or bare numbers,
// which are read as milliseconds.
type durationSpec time.Duration

func (d *durationSpec) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = durationSpec(v)
		return nil
	}
	var ms float64
	if err := node.Decode(&ms); err != nil {
		return fmt.Errorf("duration must be a string or a number of milliseconds")
	}
	*d = durationSpec(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// curveSpec accepts either a curve name or four cubic bezier control
// values.
type curveSpec struct {
	name   string
	bezier []float64
}

func (c *curveSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.name)
	case yaml.SequenceNode:
		if err := node.Decode(&c.bezier); err != nil {
			return err
		}
		if len(c.bezier) != 4 {
			return fmt.Errorf("cubic bezier curve needs 4 values, got %d", len(c.bezier))
		}
		return nil
	default:
		return fmt.Errorf("curve must be a name or a list of 4 control values")
	}
}

type keyframeSpec struct {
	Offset float64  `yaml:"offset"`
	Value  *float64 `yaml:"value,omitempty"`
	Color  string   `yaml:"color,omitempty"`
}

// LoadOptional reads transitions.yaml from dir if present. A missing
// file yields an empty library.
func LoadOptional(dir string) (*Library, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Library{presets: map[string]Preset{}}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Load reads a preset file from an explicit path.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes preset file contents.
func Parse(data []byte) (*Library, error) {
	var file fileSpec
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if file.Format != "" {
		f := file.Format
		if !strings.HasPrefix(f, "v") {
			f = "v" + f
		}
		if !semver.IsValid(f) {
			return nil, fmt.Errorf("invalid preset format version %q", file.Format)
		}
		if semver.Major(f) != Format {
			return nil, fmt.Errorf("unsupported preset format %q, this build reads %s", file.Format, Format)
		}
	}

	lib := &Library{presets: make(map[string]Preset, len(file.Transitions))}
	for name, t := range file.Transitions {
		p, err := resolveTransition(name, t)
		if err != nil {
			return nil, err
		}
		lib.presets[name] = p
	}
	return lib, nil
}

// Resolve returns the named preset.
func (l *Library) Resolve(name string) (Preset, bool) {
	p, ok := l.presets[name]
	return p, ok
}

// Names returns the preset names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.presets))
	for name := range l.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of presets.
func (l *Library) Len() int { return len(l.presets) }

func resolveTransition(name string, t transitionSpec) (Preset, error) {
	if t.Duration <= 0 {
		return Preset{}, fmt.Errorf("transition %q: duration must be positive", name)
	}
	curve, err := resolveCurve(t.Curve)
	if err != nil {
		return Preset{}, fmt.Errorf("transition %q: %w", name, err)
	}

	p := Preset{Name: name, Duration: time.Duration(t.Duration), Curve: curve}
	for _, kf := range t.Keyframes {
		if kf.Offset < 0 || kf.Offset > 1 {
			return Preset{}, fmt.Errorf("transition %q: keyframe offset %v out of range", name, kf.Offset)
		}
		switch {
		case kf.Color != "":
			c, err := parseColor(kf.Color)
			if err != nil {
				return Preset{}, fmt.Errorf("transition %q: %w", name, err)
			}
			p.ColorKeys = append(p.ColorKeys, animation.Key[color.RGBA]{Offset: kf.Offset, Value: c})
		case kf.Value != nil:
			p.Keys = append(p.Keys, animation.Key[float64]{Offset: kf.Offset, Value: *kf.Value})
		default:
			return Preset{}, fmt.Errorf("transition %q: keyframe needs a value or a color", name)
		}
	}
	if len(p.Keys) > 0 && len(p.ColorKeys) > 0 {
		return Preset{}, fmt.Errorf("transition %q: mixes scalar and color keyframes", name)
	}
	return p, nil
}

func resolveCurve(c curveSpec) (animation.Curve, error) {
	if len(c.bezier) == 4 {
		return animation.CubicBezier(c.bezier[0], c.bezier[1], c.bezier[2], c.bezier[3]), nil
	}
	switch strings.ToLower(strings.TrimSpace(c.name)) {
	case "", "linear":
		return animation.LinearCurve, nil
	case "ease":
		return animation.Ease, nil
	case "ease-in":
		return animation.EaseIn, nil
	case "ease-out":
		return animation.EaseOut, nil
	case "ease-in-out":
		return animation.EaseInOut, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", c.name)
	}
}

// parseColor accepts #rgb, #rrggbb, #rrggbbaa or an SVG 1.1 color name.
func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := s[1:]
	var r, g, b, a uint8
	a = 0xff
	switch len(hex) {
	case 3:
		n, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b)
		if err != nil || n != 3 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		n, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
		if err != nil || n != 3 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
	case 8:
		n, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a)
		if err != nil || n != 4 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
