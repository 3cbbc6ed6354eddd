package servers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// OS is the host platform category DataDir keys off.
type OS int

const (
	Linux OS = iota
	Mac
	Windows
)

// Env carries the environment inputs the resolver depends on, so tests
// can exercise every platform from one host.
type Env struct {
	Home    string // $HOME
	AppData string // %APPDATA%, windows only
}

// DataDir resolves the default Minecraft data directory for a platform:
// %APPDATA%\.minecraft on windows, ~/Library/Application Support/minecraft
// on mac, ~/.minecraft elsewhere.
func DataDir(system OS, env Env) (string, error) {
	var base, name string
	switch system {
	case Windows:
		base, name = env.AppData, ".minecraft"
	case Mac:
		if env.Home != "" {
			base = filepath.Join(env.Home, "Library", "Application Support")
		}
		name = "minecraft"
	default:
		base, name = env.Home, ".minecraft"
	}
	if base == "" {
		return "", errors.New("could not resolve the minecraft directory, pass it explicitly with --instance")
	}
	return filepath.Join(base, name), nil
}

// DefaultDataDir resolves the data directory for the current host and
// verifies it exists.
func DefaultDataDir() (string, error) {
	home, _ := os.UserHomeDir()
	env := Env{Home: home}
	system := Linux
	switch runtime.GOOS {
	case "windows":
		system = Windows
		env.AppData = os.Getenv("APPDATA")
	case "darwin":
		system = Mac
	}
	dir, err := DataDir(system, env)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("minecraft directory %s does not exist, pass it explicitly with --instance", dir)
	}
	return dir, nil
}
