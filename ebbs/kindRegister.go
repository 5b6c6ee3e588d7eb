package ebbs

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

var validKinds = make(map[int64]string)
var kindsMutex = &deadlock.Mutex{}

func WhichMindForKind(kind int64) (string, bool) {
	kindsMutex.Lock()
	defer kindsMutex.Unlock()
	mind, ok := validKinds[kind]
	return mind, ok
}

func registerKinds(kinds []int64, mind string) error {
	kindsMutex.Lock()
	defer kindsMutex.Unlock()
	for _, kind := range kinds {
		if _mind, ok := validKinds[kind]; ok && _mind != mind {
			return fmt.Errorf("kind %d has already been registered by %s", kind, _mind)
		}
	}
	for _, kind := range kinds {
		validKinds[kind] = mind
	}
	return nil
}

func GetAllKinds() map[int64]string {
	kindsMutex.Lock()
	defer kindsMutex.Unlock()
	all := make(map[int64]string, len(validKinds))
	for k, m := range validKinds {
		all[k] = m
	}
	return all
}
