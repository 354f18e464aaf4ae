package steward

import (
	"github.com/spf13/viper"
	"io"
)

// Builder holds what's needed to build a steward instance
type Builder struct {
	name    string
	v       *viper.Viper
	store   ConfigStore
	options []Option
	err     error
}

// NewBot returns a new Builder used to set up a new steward
func NewBot(name string, v *viper.Viper, options ...Option) (sb *Builder) {
	sb = new(Builder)
	sb.name = name
	sb.v = v
	sb.options = options

	return sb
}

// WithStore sets the configuration store of the steward
func (sb *Builder) WithStore(store ConfigStore) *Builder {
	if sb.err != nil {
		return sb
	}

	sb.store = store

	return sb
}

// WithStoreErr sets a configuration store that has a creation function returning (ConfigStore, error)
func (sb *Builder) WithStoreErr(store ConfigStore, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	return sb.WithStore(store)
}

// WithCloser registers a closer that gets closed along with the steward
func (sb *Builder) WithCloser(closer io.Closer) *Builder {
	if sb.err != nil || closer == nil {
		return sb
	}

	sb.options = append(sb.options, OptionCloser(closer))

	return sb
}

// Build returns the built steward instance. If there was an error during
// setup, the error is returned along with a nil steward
func (sb *Builder) Build() (s *Steward, err error) {
	if sb.err != nil {
		return nil, sb.err
	}

	return New(sb.name, sb.v, sb.store, sb.options...)
}
