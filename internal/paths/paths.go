package paths

import (
	"os"
	"path/filepath"
)

const appName = "mikrodesk"

// HomeDir returns the user's home directory. MIKRODESK_HOME overrides it so
// tests and portable installs can keep state in one place.
func HomeDir() (string, error) {
	if home := os.Getenv("MIKRODESK_HOME"); home != "" {
		return home, nil
	}
	return os.UserHomeDir()
}

func ensure(elem ...string) (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append([]string{home}, elem...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CacheDir returns ~/.cache/mikrodesk, creating it if needed.
func CacheDir() (string, error) {
	return ensure(".cache", appName)
}

// DataDir returns ~/.local/share/mikrodesk, creating it if needed.
func DataDir() (string, error) {
	return ensure(".local", "share", appName)
}

// ConfigDir returns ~/.config/mikrodesk, creating it if needed.
func ConfigDir() (string, error) {
	return ensure(".config", appName)
}

// ConfigFile is the YAML config location.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DBFile is the local sqlite state database.
func DBFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".db"), nil
}

// LogFile is where the TUI writes its log while the alt screen is active.
func LogFile() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".log"), nil
}
