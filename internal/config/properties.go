package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Properties holds the KEY=VALUE pairs of one configuration file. Lookups
// prefer the environment variable envPrefix+KEY over the file value.
type Properties struct {
	path      string
	envPrefix string
	values    map[string]string
	errs      []error
}

// LoadProperties reads a properties file. A missing file is an error unless
// optional is set, in which case only defaults and the environment apply.
func LoadProperties(path, envPrefix string, optional bool) (*Properties, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !(optional && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		values = map[string]string{}
	}
	return &Properties{path: path, envPrefix: envPrefix, values: values}, nil
}

// NewProperties wraps an in-memory map, mainly for tests
func NewProperties(values map[string]string, envPrefix string) *Properties {
	return &Properties{path: "<memory>", envPrefix: envPrefix, values: values}
}

func (p *Properties) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(p.envPrefix + key); ok {
		return strings.TrimSpace(v), true
	}
	v, ok := p.values[key]
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

// String returns the value for key or def
func (p *Properties) String(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

// Int returns the value for key or def; a malformed value is recorded as an error
func (p *Properties) Int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %s must be an integer, got %q", p.path, key, v))
		return def
	}
	return n
}

// Bool returns the value for key or def
func (p *Properties) Bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %s must be a boolean, got %q", p.path, key, v))
		return def
	}
	return b
}

// Duration accepts Go durations ("1m30s") or a bare number of seconds
func (p *Properties) Duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %s must be a duration, got %q", p.path, key, v))
		return def
	}
	return d
}

// List splits a comma separated value
func (p *Properties) List(key string, def []string) []string {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Err reports every malformed value read so far
func (p *Properties) Err() error {
	return errors.Join(p.errs...)
}

// Endpoint is a host and port pair read from a properties file
type Endpoint struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
}

// Addr returns host:port, bracketing IPv6 hosts
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func readEndpoint(p *Properties, defHost string, defPort int) Endpoint {
	return Endpoint{
		Host: p.String("HOST", defHost),
		Port: p.Int("PORT", defPort),
	}
}

func validateStruct(name string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s configuration: %w", name, err)
	}
	return nil
}

// LoadEndpoint reads just HOST and PORT from a properties file
func LoadEndpoint(path, envPrefix string, defHost string, defPort int) (Endpoint, error) {
	p, err := LoadProperties(path, envPrefix, false)
	if err != nil {
		return Endpoint{}, err
	}
	endpoint := readEndpoint(p, defHost, defPort)
	if err := p.Err(); err != nil {
		return Endpoint{}, err
	}
	if err := validateStruct("endpoint", endpoint); err != nil {
		return Endpoint{}, err
	}
	return endpoint, nil
}
