package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/hatena"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Getenv  func(string) string
	Environ func() []string

	// Extra client options, applied after the ones built from configuration.
	HackMDOptions []hackmd.Option
	HatenaOptions []hatena.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}

// loadDotenv layers the variables of a .env style file under the process
// environment: a variable already set in the environment wins. A missing
// file is not an error.
func (e *Environment) loadDotenv(path string) error {
	if path == "" {
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrReadEnvFile, path, err)
	}

	getenv, environ := e.Getenv, e.Environ
	e.Getenv = func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return values[key]
	}
	e.Environ = func() []string {
		out := environ()
		for k, v := range values {
			out = append(out, k+"="+v)
		}
		return out
	}
	return nil
}
