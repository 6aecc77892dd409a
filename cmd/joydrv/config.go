package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gethiox/joydrv/internal/pkg/adc"
	"github.com/gethiox/joydrv/internal/pkg/logger"
)

//go:embed joydrv-config/joydrv.config
//go:embed joydrv-config/profiles/*
var templateConfig embed.FS

const (
	configDir  = "joydrv-config"
	configFile = "joydrv.config"
)

// createConfigDirectoryIfNeeded writes template configuration tree into dir when it does not exist yet.
// Existing files are never overwritten.
func createConfigDirectoryIfNeeded(dir string) error {
	cdir, err := os.OpenFile(dir, os.O_RDONLY, 0)
	if err == nil {
		cdir.Close()
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot open config directory: %v", err)
	}
	log.Info("config not exist, generating tree...", logger.Info)

	err = fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(configDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			err := os.MkdirAll(target, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", target, err)
			}
			return nil
		}

		data, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
		}

		dst, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666)
		if err != nil {
			return fmt.Errorf("cannot open \"%s\" file: %w", target, err)
		}
		defer dst.Close()

		_, err = dst.Write(data)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", target, err)
		}

		log.Info(fmt.Sprintf("Created \"%s\" file", target), logger.Debug)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("config generation done", logger.Info)
	return nil
}

// loadProfile returns built-in profile for empty path, relative paths are resolved against config directory.
func loadProfile(dir, path string) (adc.Profile, error) {
	if path == "" {
		return adc.MCP3008, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return adc.LoadProfile(path)
}
