package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/rtsql/rtsql"
)

type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type StreamConfig struct {
	Name   string        `yaml:"name"`
	Fields []FieldConfig `yaml:"fields"`
}

type Config struct {
	Streams   []StreamConfig         `yaml:"streams"`
	Typecheck map[string]interface{} `yaml:"typecheck"`
	Logging   map[string]interface{} `yaml:"logging"`
}

func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	var config Config

	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	if config.Typecheck == nil {
		config.Typecheck = map[string]interface{}{}
	}
	if config.Logging == nil {
		config.Logging = map[string]interface{}{}
	}

	return &config, nil
}

func (config *Config) GetStreamConfig(name string) (*StreamConfig, error) {
	for i := range config.Streams {
		if config.Streams[i].Name == name {
			return &config.Streams[i], nil
		}
	}

	return nil, ErrNotFound
}

// StreamSchema builds the record type declared for the stream.
func (stream *StreamConfig) StreamSchema(interner *rtsql.Interner) (*rtsql.Type, error) {
	fields := make([]rtsql.RecordField, len(stream.Fields))
	for i, field := range stream.Fields {
		t, err := rtsql.ParseType(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid type of field %s", field.Name)
		}
		fields[i] = rtsql.RecordField{
			Name: field.Name,
			Type: t,
		}
	}

	record, err := rtsql.NewRecord(fields...)
	if err != nil {
		return nil, err
	}
	return interner.Intern(record), nil
}

// StreamSchemas builds the record types of all declared streams, keyed by stream name.
func (config *Config) StreamSchemas(interner *rtsql.Interner) (map[string]*rtsql.Type, error) {
	out := make(map[string]*rtsql.Type, len(config.Streams))
	for i := range config.Streams {
		name := config.Streams[i].Name
		if _, ok := out[name]; ok {
			return nil, errors.Errorf("stream %s is declared more than once", name)
		}
		t, err := config.Streams[i].StreamSchema(interner)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid schema of stream %s", name)
		}
		out[name] = t
	}
	return out, nil
}

// StrictNulls reports whether nullable arguments may be bound to non-nullable function parameters.
func (config *Config) StrictNulls() (bool, error) {
	return GetBool(config.Typecheck, "strictNulls", WithDefault(false))
}

// LogDirectory is where the log file is created, ~/.rtsql by default.
func (config *Config) LogDirectory() (string, error) {
	dir, err := GetString(config.Logging, "directory", WithDefault(""))
	if err != nil {
		return "", err
	}
	if dir != "" {
		return homedir.Expand(dir)
	}
	return DefaultLogDirectory()
}

func DefaultLogDirectory() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "couldn't get user home directory")
	}
	return filepath.Join(home, ".rtsql"), nil
}
