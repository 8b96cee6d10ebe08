package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaperio/autoitem/internal/sampler"
)

// Channel is one open automation item file.
type Channel struct {
	Kind   sampler.Channel
	Path   string
	file   *os.File
	writer *AutoItemWriter
}

// ChannelSet holds the four channel files of one export. They are opened
// together, written in lock-step and closed together.
type ChannelSet struct {
	channels []*Channel
}

// ChannelPath is the file one channel of project is written to.
func ChannelPath(dir, project string, ch sampler.Channel) string {
	return filepath.Join(dir, project+"_"+ch.String()+FileExtension)
}

// OpenChannels creates (or truncates) all channel files. If any of them
// cannot be opened, the ones already created are closed and removed.
func OpenChannels(dir, project string) (*ChannelSet, error) {
	set := &ChannelSet{}
	for _, kind := range sampler.Channels {
		path := ChannelPath(dir, project, kind)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			set.discard()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		set.channels = append(set.channels, &Channel{
			Kind:   kind,
			Path:   path,
			file:   f,
			writer: NewAutoItemWriter(f),
		})
	}
	return set, nil
}

func (s *ChannelSet) WriteHeader(totalSteps int) error {
	for _, ch := range s.channels {
		if err := ch.writer.WriteHeader(totalSteps); err != nil {
			return fmt.Errorf("write header %s: %w", ch.Path, err)
		}
	}
	return nil
}

// Append writes the tick's value for every channel at the tick's grid index.
func (s *ChannelSet) Append(t sampler.Tick) error {
	for _, ch := range s.channels {
		if err := ch.writer.WritePoint(t.Grid, t.Values[ch.Kind]); err != nil {
			return fmt.Errorf("write %s: %w", ch.Path, err)
		}
	}
	return nil
}

func (s *ChannelSet) Paths() []string {
	paths := make([]string, len(s.channels))
	for i, ch := range s.channels {
		paths[i] = ch.Path
	}
	return paths
}

// Close flushes and closes every file, even after a failure on one of them,
// and reports all errors.
func (s *ChannelSet) Close() error {
	var errs []error
	for _, ch := range s.channels {
		if ch.file == nil {
			continue
		}
		if err := ch.writer.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", ch.Path, err))
		}
		if err := ch.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ch.Path, err))
		}
		ch.file = nil
	}
	return errors.Join(errs...)
}

func (s *ChannelSet) discard() {
	for _, ch := range s.channels {
		ch.file.Close()
		os.Remove(ch.Path)
	}
	s.channels = nil
}
