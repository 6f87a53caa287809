package storage

import (
	"log"
	"path/filepath"
	"time"
)

// StartBackgroundWorkers launches the periodic save worker when background
// saves are enabled
func (se *Engine) StartBackgroundWorkers() {
	if !se.backgroundSave {
		return
	}
	se.backgroundWg.Add(1)
	go se.backgroundSaveWorker()
}

// StopBackgroundWorkers stops background workers and waits for them to exit
func (se *Engine) StopBackgroundWorkers() {
	close(se.stopChan)
	se.backgroundWg.Wait()
}

func (se *Engine) backgroundSaveWorker() {
	defer se.backgroundWg.Done()

	ticker := time.NewTicker(se.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-se.stopChan:
			return
		case <-ticker.C:
			if !se.hasDirtyCollections() {
				continue
			}
			filename := se.dataFile
			if filename == "" {
				filename = filepath.Join(se.dataDir, "driftdb_data"+FileExtension)
			}
			if err := se.SaveToFile(filename); err != nil {
				log.Printf("ERROR: Background save to %s failed: %v", filename, err)
			} else {
				log.Printf("INFO: Background save to %s completed", filename)
			}
		}
	}
}

func (se *Engine) hasDirtyCollections() bool {
	se.mu.RLock()
	defer se.mu.RUnlock()
	for _, info := range se.infos {
		if info.State == CollectionStateDirty {
			return true
		}
	}
	return false
}
