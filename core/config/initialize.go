package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the commented default configuration into the directory,
// refusing to clobber an existing file. The written config round-trips
// through Load.
func Initialize(aferoFs afero.Fs, path string, logger *log.Logger) error {
	configPath := filepath.Join(path, ConfigurationName)

	exists, err := afero.Exists(aferoFs, configPath)
	if err != nil {
		return err
	}
	if exists {
		logger.Printf("%s already exists, leaving it alone", configPath)
		return nil
	}

	if err := afero.WriteFile(aferoFs, configPath, defaultConfigData, 0600); err != nil {
		return err
	}
	logger.Printf("wrote %s", configPath)
	return nil
}
