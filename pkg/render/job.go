// Package render runs offline render jobs: an optional WAV input through
// a chain of plugins into a WAV file, with parameter automation.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Job describes one render.
type Job struct {
	// Input is a WAV file. Without it the chain renders Duration of
	// silence, which suits generators.
	Input string `yaml:"input,omitempty"`
	// Output is the WAV file to write.
	Output string `yaml:"output"`

	SampleRate float64 `yaml:"sample_rate,omitempty"`
	BlockSize  int     `yaml:"block_size,omitempty"`
	// BitDepth of the output, 16 or 24.
	BitDepth int `yaml:"bit_depth,omitempty"`

	Duration Duration `yaml:"duration,omitempty"`
	// Tail is rendered after the input ends.
	Tail Duration `yaml:"tail,omitempty"`

	Plugins []Stage `yaml:"plugins"`
}

// Stage is one plugin in the chain.
type Stage struct {
	Path       string             `yaml:"path"`
	Parameters map[uint32]float64 `yaml:"parameters,omitempty"`
	Automation []Automation       `yaml:"automation,omitempty"`
}

// Automation moves a parameter to Value starting At, over Ramp.
type Automation struct {
	ID    uint32   `yaml:"id"`
	At    Duration `yaml:"at"`
	Value float64  `yaml:"value"`
	Ramp  Duration `yaml:"ramp,omitempty"`
}

// Duration is a time.Duration written as "1.5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Frames converts d to a frame count at sampleRate.
func (d Duration) Frames(sampleRate float64) int {
	return int(time.Duration(d).Seconds()*sampleRate + 0.5)
}

// Defaults for job fields.
const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 512
	DefaultBitDepth   = 16
)

// LoadJob reads a job file. Relative input and output paths, and plugin
// paths that exist on disk relative to the job, are resolved against the
// job's directory.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if job.Input != "" && !filepath.IsAbs(job.Input) {
		job.Input = filepath.Join(dir, job.Input)
	}
	if job.Output != "" && !filepath.IsAbs(job.Output) {
		job.Output = filepath.Join(dir, job.Output)
	}
	for i, s := range job.Plugins {
		if filepath.IsAbs(s.Path) {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, s.Path)); err == nil {
			job.Plugins[i].Path = filepath.Join(dir, s.Path)
		}
	}

	job.withDefaults()
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}
	return &job, nil
}

func (j *Job) withDefaults() {
	if j.SampleRate == 0 {
		j.SampleRate = DefaultSampleRate
	}
	if j.BlockSize == 0 {
		j.BlockSize = DefaultBlockSize
	}
	if j.BitDepth == 0 {
		j.BitDepth = DefaultBitDepth
	}
}

// Validate checks the job.
func (j *Job) Validate() error {
	if j.Output == "" {
		return errors.New("output is required")
	}
	if len(j.Plugins) == 0 {
		return errors.New("at least one plugin is required")
	}
	if j.Input == "" && j.Duration <= 0 {
		return errors.New("duration is required without an input")
	}
	if j.SampleRate <= 0 || j.BlockSize <= 0 {
		return fmt.Errorf("invalid sample rate %g or block size %d", j.SampleRate, j.BlockSize)
	}
	if j.BitDepth != 16 && j.BitDepth != 24 {
		return fmt.Errorf("bit depth must be 16 or 24, got %d", j.BitDepth)
	}
	if j.Duration < 0 || j.Tail < 0 {
		return errors.New("duration and tail must not be negative")
	}
	for i, s := range j.Plugins {
		if s.Path == "" {
			return fmt.Errorf("plugin %d: path is required", i)
		}
		for _, a := range s.Automation {
			if a.At < 0 || a.Ramp < 0 {
				return fmt.Errorf("plugin %d: automation of %d has a negative time", i, a.ID)
			}
		}
	}
	return nil
}

// event is an automation point in frames.
type event struct {
	stage int
	frame int
	id    uint32
	value float64
	ramp  int
}

// events lists the job's automation ordered by frame.
func (j *Job) events() []event {
	var out []event
	for i, s := range j.Plugins {
		for _, a := range s.Automation {
			out = append(out, event{
				stage: i,
				frame: a.At.Frames(j.SampleRate),
				id:    a.ID,
				value: a.Value,
				ramp:  a.Ramp.Frames(j.SampleRate),
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].frame < out[b].frame })
	return out
}
