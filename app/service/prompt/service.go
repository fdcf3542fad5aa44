package prompt

import (
	"clutha/app/config"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const fileExt = ".txt"

type Service struct {
	dir         string
	defaultName string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Prompts.Dir, cfg.Prompts.Default), nil
}

func NewService(dir, defaultName string) *Service {
	return &Service{
		dir:         dir,
		defaultName: defaultName,
	}
}

// Load reads <dir>/<name>.txt.
func (s *Service) Load(name string) (*Prompt, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, oops.
			In("prompt").
			With("name", name).
			Errorf("invalid prompt name")
	}

	return LoadFile(name, filepath.Join(s.dir, name+fileExt))
}

// Default returns the configured default prompt, or an empty one.
func (s *Service) Default() (*Prompt, error) {
	if s.defaultName == "" {
		return Empty(), nil
	}

	return s.Load(s.defaultName)
}

func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, oops.
			In("prompt").
			With("dir", s.dir).
			Wrapf(err, "failed to list prompts")
	}

	files := pie.Filter(entries, func(e os.DirEntry) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), fileExt)
	})
	names := pie.Map(files, func(e os.DirEntry) string {
		return strings.TrimSuffix(e.Name(), fileExt)
	})

	return pie.Sort(names), nil
}
