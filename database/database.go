// Package database is the flat-file store behind every Mind. Each Mind gets its own directory under
// <rootDir><flatFileDir> and each named dataset is a single JSON file inside it.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dircopy "github.com/otiai10/copy"
	"github.com/sasha-s/go-deadlock"

	"ebbs/ebbs"
)

var writeMutex = &deadlock.Mutex{}

var ErrNoConfig = errors.New("no config has been loaded")

// Ready reports whether there is a config to find the data directory with.
func Ready() error {
	if ebbs.MakeOrGetConfig() == nil {
		return ErrNoConfig
	}
	return nil
}

func root() (string, error) {
	c := ebbs.MakeOrGetConfig()
	if c == nil {
		return "", ErrNoConfig
	}
	return filepath.Join(c.GetString("rootDir"), c.GetString("flatFileDir")), nil
}

func path(mind, name string) (string, error) {
	r, err := root()
	if err != nil {
		return "", err
	}
	return filepath.Join(r, mind, name+".json"), nil
}

// Open returns the file holding dataset name for this mind. ok is false when it doesn't exist yet. The caller
// must close the file.
func Open(mind, name string) (f *os.File, ok bool) {
	p, err := path(mind, name)
	if err != nil {
		ebbs.LogCLI(err.Error(), 1)
		return nil, false
	}
	f, err = os.Open(p)
	if err != nil {
		if !os.IsNotExist(err) {
			ebbs.LogCLI(err.Error(), 1)
		}
		return nil, false
	}
	return f, true
}

// Write replaces dataset name for this mind. The file is written next to the old one and renamed into place so a
// crash never leaves half a snapshot behind.
func Write(mind, name string, b []byte) error {
	writeMutex.Lock()
	defer writeMutex.Unlock()
	p, err := path(mind, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Backup copies the whole data directory to <rootDir><backupDir><timestamp>/ and returns where it went.
func Backup() (string, error) {
	writeMutex.Lock()
	defer writeMutex.Unlock()
	c := ebbs.MakeOrGetConfig()
	if c == nil {
		return "", ErrNoConfig
	}
	src, err := root()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(c.GetString("rootDir"), c.GetString("backupDir"), fmt.Sprint(time.Now().UnixNano()))
	if err := dircopy.Copy(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}
